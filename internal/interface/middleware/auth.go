package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-service/internal/application"
	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/pkg/response"
)

const (
	CtxUserKey   = "user"
	CtxUserIDKey = "userID"
)

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth validates the bearer token and requires the user behind it to be active.
// On success the user is stored under CtxUserKey and its id under CtxUserIDKey.
func Auth(tokens application.TokenStrategy, resolver application.UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := tokens.Validate(c.Request.Context(), BearerToken(c), resolver)
		if !ok || !u.IsActive {
			response.Unauthorized(c)
			return
		}
		c.Set(CtxUserKey, u)
		c.Set(CtxUserIDKey, u.ID.String())
		c.Next()
	}
}

// RequireSuperuser must run after Auth.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			response.Unauthorized(c)
			return
		}
		if !u.IsSuperuser {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by Auth, or nil.
func CurrentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}
