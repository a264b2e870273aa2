package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/followup/api/transport"
	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/internal/infrastructure/journal"
	"github.com/fastygo/followup/pkg/httpcontext"
)

const (
	defaultFailureLimit = 50
	maxFailureLimit     = 500
)

// FailureLister is implemented by journal.Store.
type FailureLister interface {
	List(limit int, tenantID string) ([]journal.Entry, error)
}

// FailureHandler shows a tenant the task broadcasts that were not delivered.
type FailureHandler struct {
	baseHandler
	journal FailureLister
}

func NewFailureHandler(store FailureLister, adapter *httpcontext.Adapter, logger *zap.Logger) *FailureHandler {
	return &FailureHandler{
		baseHandler: newBaseHandler(adapter, logger),
		journal:     store,
	}
}

// @Summary Recent undelivered broadcasts
// @Tags operations
// @Router /api/v1/broadcast-failures [get]
func (h *FailureHandler) Recent(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tenantID := httpcontext.Tenant(ctx)
	if tenantID == "" {
		h.respondError(ctx, stdCtx, domain.ErrUnauthorized)
		return
	}

	limit := ctx.QueryArgs().GetUintOrZero("limit")
	if limit <= 0 {
		limit = defaultFailureLimit
	}
	if limit > maxFailureLimit {
		limit = maxFailureLimit
	}

	entries, err := h.journal.List(limit, tenantID)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}

	resp := transport.BroadcastFailuresResponse{
		Failures: make([]transport.BroadcastFailureView, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Failures = append(resp.Failures, transport.BroadcastFailureView{
			ID:        e.ID,
			Channel:   e.Channel,
			Event:     e.Event,
			Payload:   e.Payload,
			Error:     e.Error,
			Timestamp: e.Timestamp.UTC(),
		})
	}
	h.respondJSON(ctx, http.StatusOK, resp)
}
