package middleware

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/followup/domain"
	"github.com/fastygo/followup/pkg/httpcontext"
)

// HeaderTenant names the caller's tenant when token checks are disabled.
// With a secret configured the header is ignored.
const HeaderTenant = "X-Tenant-ID"

// TokenCookie is read when no Authorization header is sent, so the
// browser dashboard can authenticate its fetch calls.
const TokenCookie = "access_token"

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// JWTAuth verifies HS256 bearer tokens signed with secret and records the
// token's tenant on the request. An empty secret disables the check and
// takes the tenant from HeaderTenant. Preflight requests are never
// challenged.
func JWTAuth(secret string, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if secret == "" {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
			return func(ctx *fasthttp.RequestCtx) {
				if tenantID := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderTenant))); tenantID != "" {
					httpcontext.SetTenant(ctx, tenantID)
				}
				next(ctx)
			}
		}
	}
	key := []byte(secret)

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if ctx.IsOptions() {
				next(ctx)
				return
			}

			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.String("path", string(ctx.Path())), zap.Error(err))
				reject(ctx)
				return
			}

			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if tenantID := tenantClaim(claims); tenantID != "" {
					httpcontext.SetTenant(ctx, tenantID)
				}
			}

			next(ctx)
		}
	}
}

// tenantClaim reads tenant_id at the top level or under app_metadata.
func tenantClaim(claims jwt.MapClaims) string {
	if tenantID, ok := claims["tenant_id"].(string); ok && tenantID != "" {
		return tenantID
	}
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if tenantID, ok := meta["tenant_id"].(string); ok {
			return tenantID
		}
	}
	return ""
}

func reject(ctx *fasthttp.RequestCtx) {
	body, _ := json.Marshal(map[string]string{"error": domain.ErrUnauthorized.Message})
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return string(ctx.Request.Header.Cookie(TokenCookie))
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
