package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/followup/api/transport"
	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/pkg/httpcontext"
	appLogger "github.com/fastygo/followup/pkg/logger"
)

const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods = "POST, OPTIONS"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// setCORS writes the fixed header set every create-task response carries.
func setCORS(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", corsAllowOrigin)
	ctx.Response.Header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	ctx.Response.Header.Set("Access-Control-Allow-Methods", corsAllowMethods)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(transport.NewError(domain.ErrInternal.Message))
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// respondError sends the safe message of err. Causes of server-side
// failures are only logged.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, reqCtx context.Context, err error) {
	dErr := domain.AsError(err)
	status := statusFor(dErr.Code)
	if status >= http.StatusInternalServerError {
		appLogger.WithRequestID(reqCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.String("code", string(dErr.Code)),
			zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewError(dErr.Message))
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.ErrCodeInvalid, domain.ErrCodeMalformed:
		return http.StatusBadRequest
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case domain.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CORS sets the create-task header set before next runs, so responses
// produced by middleware in front of the handler carry it too.
func CORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		setCORS(ctx)
		next(ctx)
	}
}
