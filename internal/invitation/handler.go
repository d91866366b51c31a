package invitation

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

// Handler handles HTTP requests for invitation operations
type Handler struct {
	service *Service
}

// NewHandler creates a new invitation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /circles/{id}/invitations
// @Summary      Invite someone to a circle
// @Description  Sends a single-use invitation link valid for seven days
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        id path int true "Circle ID"
// @Param        request body CreateInvitationRequest true "Invitee"
// @Success      201 {object} response.APIResponse{data=InvitationResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /circles/{id}/invitations [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	circleID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid circle ID")
		return
	}

	var req CreateInvitationRequest
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

// Lookup handles GET /invitations/{token}
// @Summary      Preview an invitation
// @Description  Unauthenticated; shows who invited whom to which circle
// @Tags         invitations
// @Produce      json
// @Param        token path string true "Invitation token"
// @Success      200 {object} response.APIResponse{data=LookupResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      410 {object} response.APIResponse
// @Router       /invitations/{token} [get]
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, inv.ToLookupResponse())
}

// Accept handles POST /invitations/{token}/accept
// @Summary      Accept an invitation
// @Description  Joins the caller to the invitation's circle as a member
// @Tags         invitations
// @Produce      json
// @Param        token path string true "Invitation token"
// @Success      200 {object} response.APIResponse{data=AcceptResponse}
// @Failure      410 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /invitations/{token}/accept [post]
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	accepted, err := h.service.Accept(r.Context(), principal, chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, accepted)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrAlreadyMember):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, ErrExpired), errors.Is(err, ErrAlreadyUsed):
		response.Gone(w, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, policy.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, policy.ErrForbidden):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, "Something went wrong")
	}
}
