package story

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cowriteapp/cowrite/internal/contribution"
	"github.com/cowriteapp/cowrite/internal/policy"
	"github.com/cowriteapp/cowrite/pkg/middleware"
	"github.com/cowriteapp/cowrite/pkg/response"
)

// Handler handles HTTP requests for story operations
type Handler struct {
	service *Service
}

// NewHandler creates a new story handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /circles/{id}/stories
// @Summary      Start a story in a circle
// @Description  Creates a story; an optional opening contribution takes the first turn
// @Tags         stories
// @Accept       json
// @Produce      json
// @Param        id path int true "Circle ID"
// @Param        request body CreateStoryRequest true "Story"
// @Success      201 {object} response.APIResponse{data=StoryResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /circles/{id}/stories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	circleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid circle ID")
		return
	}

	var req CreateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	created, err := h.service.Create(r.Context(), principal, circleID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, created.ToResponse())
}

// List handles GET /circles/{id}/stories
// @Summary      List the stories of a circle
// @Tags         stories
// @Produce      json
// @Param        id path int true "Circle ID"
// @Success      200 {object} response.APIResponse{data=[]StoryResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /circles/{id}/stories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	circleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid circle ID")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	stories, err := h.service.ListByCircle(r.Context(), principal, circleID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]*StoryResponse, 0, len(stories))
	for _, s := range stories {
		resp = append(resp, s.ToResponse())
	}

	response.JSON(w, http.StatusOK, resp)
}

// Get handles GET /stories/{id}
// @Summary      Get a story with its contributions
// @Tags         stories
// @Produce      json
// @Param        id path int true "Story ID"
// @Success      200 {object} response.APIResponse{data=StoryResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /stories/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid story ID")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	story, contributions, members, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, storyDetail(story, contributions, members, principal.Elevated()))
}

// Complete handles PATCH /stories/{id}/complete
// @Summary      Complete a story
// @Description  Marks a story completed; no further turns can be taken
// @Tags         stories
// @Produce      json
// @Param        id path int true "Story ID"
// @Success      200 {object} response.APIResponse{data=StoryResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /stories/{id}/complete [patch]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid story ID")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	completed, err := h.service.Complete(r.Context(), principal, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, completed.ToResponse())
}

// AdminList handles GET /admin/stories
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	stories, err := h.service.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]*StoryResponse, 0, len(stories))
	for _, s := range stories {
		resp = append(resp, s.ToResponse())
	}

	response.JSON(w, http.StatusOK, resp)
}

// AdminGet handles GET /admin/stories/{id}
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid story ID")
		return
	}

	story, contributions, members, err := h.service.AdminGet(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, storyDetail(story, contributions, members, true))
}

func storyDetail(s *Story, contributions []*contribution.Contribution, members []*MemberOption, elevated bool) *StoryResponse {
	resp := s.ToResponse()
	resp.Contributions = make([]*contribution.ContributionResponse, 0, len(contributions))
	for _, c := range contributions {
		resp.Contributions = append(resp.Contributions, c.ToResponse(elevated))
	}
	resp.CircleMembers = members
	return resp
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidTitle), errors.Is(err, ErrAlreadyCompleted):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, contribution.ErrValidation), errors.Is(err, contribution.ErrStoryNotActive):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, policy.ErrNotFound), errors.Is(err, contribution.ErrStoryNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, policy.ErrForbidden), errors.Is(err, contribution.ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	case errors.Is(err, contribution.ErrConflict):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, "Something went wrong")
	}
}
