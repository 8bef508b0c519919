package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-user-service/internal/interface/http"
	"github.com/oksasatya/go-user-service/internal/interface/middleware"
)

// UserModule serves the current-user routes and superuser administration.
//
//	GET|PATCH|DELETE /users/me         active user
//	GET /users/search?q=               superuser
//	GET|PATCH|DELETE /users/:id        superuser
type UserModule struct {
	Handler *handlers.UserHandler
	Auth    gin.HandlerFunc
	Limiter *middleware.RateLimiter
}

func NewUserModule(h *handlers.UserHandler, auth gin.HandlerFunc, limiter *middleware.RateLimiter) *UserModule {
	return &UserModule{Handler: h, Auth: auth, Limiter: limiter}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(m.Auth, m.Limiter.Limit(120, time.Minute, middleware.KeyByUserID(), nil))
	{
		// password changes go through here, keep them slow per user
		updateLimiter := m.Limiter.Limit(10, time.Minute, middleware.KeyByUserID(), nil)

		users.GET("/me", m.Handler.Me)
		users.PATCH("/me", updateLimiter, m.Handler.UpdateMe)
		users.DELETE("/me", m.Handler.DeleteMe)
	}

	admin := users.Group("")
	admin.Use(middleware.RequireSuperuser())
	{
		admin.GET("/search", m.Handler.Search)
		admin.GET("/:id", m.Handler.Get)
		admin.PATCH("/:id", m.Handler.Update)
		admin.DELETE("/:id", m.Handler.Delete)
	}
}
