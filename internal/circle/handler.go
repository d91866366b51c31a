package circle

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

// Handler handles HTTP requests for circle operations
type Handler struct {
	service *Service
}

// NewHandler creates a new circle handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /circles
// @Summary      Create a new circle
// @Description  Creates a circle and enrolls the caller as its admin
// @Tags         circles
// @Accept       json
// @Produce      json
// @Param        request body CreateCircleRequest true "Circle"
// @Success      201 {object} response.APIResponse{data=CircleResponse}
// @Failure      422 {object} response.APIResponse
// @Router       /circles [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCircleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	created, err := h.service.Create(r.Context(), principal, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, created.ToResponse())
}

// List handles GET /circles
// @Summary      List the caller's circles
// @Tags         circles
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]CircleResponse}
// @Router       /circles [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	circles, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]*CircleResponse, 0, len(circles))
	for _, c := range circles {
		resp = append(resp, c.ToResponse())
	}

	response.JSON(w, http.StatusOK, resp)
}

// Get handles GET /circles/{id}
// @Summary      Get a circle with its members
// @Tags         circles
// @Produce      json
// @Param        id path int true "Circle ID"
// @Success      200 {object} response.APIResponse{data=CircleResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /circles/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid circle ID")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	circle, members, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, circleWithMembers(circle, members))
}

// Update handles PATCH /circles/{id}
// @Summary      Update a circle
// @Tags         circles
// @Accept       json
// @Produce      json
// @Param        id path int true "Circle ID"
// @Param        request body UpdateCircleRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=CircleResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /circles/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid circle ID")
		return
	}

	var req UpdateCircleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	updated, err := h.service.Update(r.Context(), principal, id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, updated.ToResponse())
}

// Delete handles DELETE /circles/{id}
// @Summary      Delete a circle
// @Tags         circles
// @Produce      json
// @Param        id path int true "Circle ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /circles/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid circle ID")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Circle deleted successfully"})
}

// AdminList handles GET /admin/circles
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	circles, err := h.service.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]*CircleResponse, 0, len(circles))
	for _, c := range circles {
		resp = append(resp, c.ToResponse())
	}

	response.JSON(w, http.StatusOK, resp)
}

// AdminGet handles GET /admin/circles/{id}
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid circle ID")
		return
	}

	circle, members, err := h.service.AdminGet(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, circleWithMembers(circle, members))
}

// AdminDelete handles DELETE /admin/circles/{id}
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid circle ID")
		return
	}

	if err := h.service.AdminDelete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Circle deleted successfully"})
}

func circleWithMembers(c *Circle, members []*Member) *CircleResponse {
	resp := c.ToResponse()
	resp.Members = make([]*MemberResponse, 0, len(members))
	for _, m := range members {
		resp.Members = append(resp.Members, m.ToResponse())
	}
	return resp
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidDescription):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, policy.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, policy.ErrForbidden):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, "Something went wrong")
	}
}
