package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/followup/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyClientInfo Key = "client_info"
)

// userValueTenant holds the tenant verified by the auth middleware. Request
// user values cannot be set by clients, unlike headers.
const userValueTenant = "auth.tenant_id"

// HeaderRequestID is echoed on every response that went through Attach.
const HeaderRequestID = "X-Request-ID"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if info := string(ctx.Request.Header.Peek("X-Client-Info")); info != "" {
		stdCtx = context.WithValue(stdCtx, KeyClientInfo, info)
	}

	return stdCtx, cancel
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := string(ctx.Request.Header.Peek(HeaderRequestID)); strings.TrimSpace(header) != "" {
		return header
	}
	return uuid.NewString()
}

// SetTenant records the caller's verified tenant on the request.
func SetTenant(ctx *fasthttp.RequestCtx, tenantID string) {
	ctx.SetUserValue(userValueTenant, tenantID)
}

// Tenant returns the tenant set by SetTenant, or "".
func Tenant(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return ""
	}
	tenantID, _ := ctx.UserValue(userValueTenant).(string)
	return tenantID
}
