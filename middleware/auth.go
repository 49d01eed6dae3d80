package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkblog/inkblog/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in
	// the Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside the Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey stores the raw bearer token for logout revocation.
	ContextTokenKey = "session_token"
)

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// RequireAuth ensures the request carries a valid, unrevoked session token.
func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tok, ok := bearerToken(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
			ctx.Abort()
			return
		}
		if utils.IsTokenBlacklisted(tok) {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "session revoked")
			ctx.Abort()
			return
		}
		claims, err := utils.ParseSessionToken(tok)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "invalid session token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextTokenKey, tok)
		ctx.Next()
	}
}

// RequireAnonymous redirects already-authenticated callers to home. Register,
// login and the reset flows are gated on being signed out.
func RequireAnonymous() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if tok, ok := bearerToken(ctx); ok && !utils.IsTokenBlacklisted(tok) {
			if _, err := utils.ParseSessionToken(tok); err == nil {
				ctx.Redirect(http.StatusFound, "/")
				ctx.Abort()
				return
			}
		}
		ctx.Next()
	}
}

// CurrentUserID returns the authenticated user's id from the context.
func CurrentUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
