package contribution

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cowriteapp/cowrite/internal/policy"
	"github.com/cowriteapp/cowrite/pkg/middleware"
	"github.com/cowriteapp/cowrite/pkg/response"
)

// Handler handles HTTP requests for contribution operations
type Handler struct {
	service *Service
}

// NewHandler creates a new contribution handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /stories/{id}/contributions
// @Summary      Append a contribution to a story
// @Description  Takes the next turn in a story. Super admins may impersonate and backdate.
// @Tags         contributions
// @Accept       json
// @Produce      json
// @Param        id path int true "Story ID"
// @Param        request body CreateContributionRequest true "Contribution"
// @Success      201 {object} response.APIResponse{data=ContributionResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /stories/{id}/contributions [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	storyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid story ID")
		return
	}

	var req CreateContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	created, err := h.service.Submit(r.Context(), principal, storyID, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, created.ToResponse(principal.Elevated()))
}

// Update handles PATCH /contributions/{id}
// @Summary      Edit a contribution
// @Description  Authors may edit their own contributions; word count is recomputed
// @Tags         contributions
// @Accept       json
// @Produce      json
// @Param        id path int true "Contribution ID"
// @Param        request body UpdateContributionRequest true "New content"
// @Success      200 {object} response.APIResponse{data=ContributionResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /contributions/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid contribution ID")
		return
	}

	var req UpdateContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	updated, err := h.service.Edit(r.Context(), principal, id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, updated.ToResponse(principal.Elevated()))
}

// AdminUpdate handles PATCH /admin/contributions/{id}
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid contribution ID")
		return
	}

	var req AdminUpdateContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	updated, err := h.service.AdminEdit(r.Context(), principal, id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, updated.ToResponse(true))
}

// AdminDelete handles DELETE /admin/contributions/{id}
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid contribution ID")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Contribution deleted successfully"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, ErrStoryNotActive):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, ErrStoryNotFound), errors.Is(err, ErrNotFound), errors.Is(err, policy.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotAuthorized), errors.Is(err, policy.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrConflict):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, "Something went wrong")
	}
}
