package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-user-service/internal/interface/http"
	"github.com/oksasatya/go-user-service/internal/interface/middleware"
)

// AuthModule serves POST /register, POST /login and POST /logout.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    gin.HandlerFunc
	Limiter *middleware.RateLimiter
}

func NewAuthModule(h *handlers.AuthHandler, auth gin.HandlerFunc, limiter *middleware.RateLimiter) *AuthModule {
	return &AuthModule{Handler: h, Auth: auth, Limiter: limiter}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public with IP-based rate limits
	registerLimiter := m.Limiter.Limit(5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := m.Limiter.Limit(10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)

	rg.POST("/logout", m.Auth, m.Handler.Logout)
}
