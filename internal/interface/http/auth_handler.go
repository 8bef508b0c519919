package handlers

import (
	"errors"
	"expvar"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/internal/application"
	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/internal/interface/middleware"
	"github.com/oksasatya/go-user-service/pkg/helpers"
	"github.com/oksasatya/go-user-service/pkg/response"
	"github.com/oksasatya/go-user-service/pkg/validation"
)

// Counters published on /debug/vars.
var (
	registrations = expvar.NewInt("auth_registrations")
	logins        = expvar.NewInt("auth_logins")
	loginFailures = expvar.NewInt("auth_login_failures")
)

type AuthHandler struct {
	Users  *application.UserManager
	Tokens application.TokenStrategy
	Logger *logrus.Logger
}

func NewAuthHandler(users *application.UserManager, tokens application.TokenStrategy, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, Logger: logger}
}

// Password must be present but may be empty; strength rules judge its value.
type registerRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password *string `json:"password" binding:"required"`
}

// loginRequest is the OAuth2 password form: the username carries the email.
type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, validation.ToDetails(err))
		return
	}

	u, err := h.Users.CreateUser(c.Request.Context(), entity.UserCreate{Email: req.Email, Password: *req.Password})
	if err != nil {
		if weak, ok := helpers.IsWeakPassword(err); ok {
			response.Coded(c, http.StatusBadRequest, string(application.CodeRegisterInvalidPassword), weak.Reason)
			return
		}
		if errors.Is(err, application.ErrUserAlreadyExists) {
			response.Error(c, http.StatusBadRequest, application.CodeRegisterUserAlreadyExists)
			return
		}
		internalError(c, h.Logger, err, "register failed")
		return
	}
	registrations.Add(1)
	c.JSON(http.StatusCreated, toUserResponse(u))
}

// Login POST /login
// Unknown email, wrong password and inactive account all answer the same way.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, validation.ToDetails(err))
		return
	}

	ctx := c.Request.Context()
	u, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil && !errors.Is(err, application.ErrInvalidCredentials) {
		internalError(c, h.Logger, err, "authenticate failed")
		return
	}
	if err != nil || !u.IsActive {
		loginFailures.Add(1)
		response.Error(c, http.StatusBadRequest, application.CodeLoginBadCredentials)
		return
	}

	token, err := h.Tokens.Issue(u)
	if err != nil {
		internalError(c, h.Logger, err, "issue token failed")
		return
	}
	logins.Add(1)
	h.Users.OnAfterLogin(ctx, u, application.LoginMeta{IP: clientIP(c), UserAgent: c.GetHeader("User-Agent")})
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Logout POST /logout (auth required)
// Stateless tokens cannot be revoked, so this always reports 501.
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.Tokens.Revoke(c.Request.Context(), middleware.BearerToken(c), middleware.CurrentUser(c))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, application.ErrRevocationUnsupported):
		response.Error(c, http.StatusNotImplemented, err.Error())
	default:
		internalError(c, h.Logger, err, "logout failed")
	}
}
