package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/pkg/httpcontext"
)

// Middleware wraps a fasthttp handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// Passthrough returns the handler unchanged.
func Passthrough(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return next
}

// JWTAuth requires an HMAC-signed bearer token. The token subject ("sub", or
// "user_id" as a fallback) is stored as a user value for the request adapter.
// An empty secret disables authentication.
func JWTAuth(secret, issuer string, logger *zap.Logger) Middleware {
	if secret == "" {
		return Passthrough
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(secret)

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}
			if issuer != "" && !claims.VerifyIssuer(issuer, true) {
				logger.Warn("jwt issuer mismatch", zap.Any("iss", claims["iss"]))
				unauthorized(ctx, "invalid token")
				return
			}

			if sub := subject(claims); sub != "" {
				ctx.SetUserValue(string(httpcontext.KeySubject), sub)
			}
			next(ctx)
		}
	}
}

func subject(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBodyString(fmt.Sprintf(`{"status":"error","code":"UNAUTHORIZED","error":%q}`, message))
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}
