package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/internal/policy"
	"github.com/cowriteapp/cowrite/pkg/middleware"
	"github.com/cowriteapp/cowrite/pkg/response"
)

const heartbeatInterval = 30 * time.Second

// Authorizer gates topic subscriptions. Membership is checked once, at
// subscribe time; a membership revoked mid-stream is not enforced until the
// client resubscribes.
type Authorizer interface {
	CanViewStory(ctx context.Context, principal *auth.Principal, storyID int64) error
}

// Handler serves the SSE subscription endpoint for story topics
type Handler struct {
	hub    *Hub
	authz  Authorizer
	logger *zap.Logger
}

// NewHandler creates a new broadcast handler
func NewHandler(hub *Hub, authz Authorizer, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, authz: authz, logger: logger}
}

// Subscribe handles GET /stories/{id}/events
// @Summary      Subscribe to a story's live updates
// @Description  Streams new_contribution and contribution_updated events over SSE
// @Tags         stories
// @Produce      text/event-stream
// @Param        id path int true "Story ID"
// @Success      200
// @Failure      403 {object} response.APIResponse
// @Router       /stories/{id}/events [get]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	storyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid story ID")
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if err := h.authz.CanViewStory(r.Context(), principal, storyID); err != nil {
		if err == policy.ErrNotFound {
			response.NotFound(w, "Story not found")
			return
		}
		response.Forbidden(w, "You are not a member of this story's circle")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	subID, events := h.hub.Subscribe(storyID, principal.Elevated())
	defer h.hub.Unsubscribe(storyID, subID)

	ctx := r.Context()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			// Comment line keeps intermediaries from closing the stream
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case evt, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
