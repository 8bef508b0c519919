package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/internal/application"
	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/internal/interface/middleware"
	"github.com/oksasatya/go-user-service/pkg/helpers"
	"github.com/oksasatya/go-user-service/pkg/response"
	"github.com/oksasatya/go-user-service/pkg/validation"
)

type UserHandler struct {
	Users  *application.UserManager
	Index  *application.UserIndex
	Logger *logrus.Logger
}

func NewUserHandler(users *application.UserManager, index *application.UserIndex, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Index: index, Logger: logger}
}

type updateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password"`
}

// adminUpdateUserRequest is accepted on superuser routes only.
type adminUpdateUserRequest struct {
	updateUserRequest
	IsActive    *bool `json:"is_active"`
	IsSuperuser *bool `json:"is_superuser"`
	IsVerified  *bool `json:"is_verified"`
}

type searchQuery struct {
	Q    string `form:"q" binding:"required"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

// Me GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, toUserResponse(middleware.CurrentUser(c)))
}

// UpdateMe PATCH /users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, validation.ToDetails(err))
		return
	}
	u, err := h.Users.UpdateUser(c.Request.Context(), middleware.CurrentUser(c), entity.UserUpdate{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.updateError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

// DeleteMe DELETE /users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	h.delete(c, middleware.CurrentUser(c))
}

// Search GET /users/search?q= (superuser)
func (h *UserHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, validation.ToDetails(err))
		return
	}
	if !h.Index.Enabled() {
		response.Error(c, http.StatusServiceUnavailable, "Search Unavailable")
		return
	}
	docs, err := h.Index.Search(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		internalError(c, h.Logger, err, "user search failed")
		return
	}
	c.JSON(http.StatusOK, response.NewList(docs))
}

// Get GET /users/:id (superuser)
func (h *UserHandler) Get(c *gin.Context) {
	u, ok := h.userFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

// Update PATCH /users/:id (superuser), flags included.
func (h *UserHandler) Update(c *gin.Context) {
	u, ok := h.userFromPath(c)
	if !ok {
		return
	}
	var req adminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnprocessableEntity, validation.ToDetails(err))
		return
	}
	updated, err := h.Users.UpdateUserWithFlags(c.Request.Context(), u, entity.UserUpdate{
		Email:       req.Email,
		Password:    req.Password,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
		IsVerified:  req.IsVerified,
	})
	if err != nil {
		h.updateError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(updated))
}

// Delete DELETE /users/:id (superuser)
func (h *UserHandler) Delete(c *gin.Context) {
	u, ok := h.userFromPath(c)
	if !ok {
		return
	}
	h.delete(c, u)
}

func (h *UserHandler) delete(c *gin.Context, u *entity.User) {
	if err := h.Users.DeleteUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, application.ErrUserNotExists) {
			response.NotFound(c)
			return
		}
		internalError(c, h.Logger, err, "delete user failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// userFromPath resolves :id; malformed and unknown ids are both 404.
func (h *UserHandler) userFromPath(c *gin.Context) (*entity.User, bool) {
	id, err := h.Users.ParseID(c.Param("id"))
	if err != nil {
		response.NotFound(c)
		return nil, false
	}
	u, err := h.Users.GetUserByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrUserNotExists) {
			response.NotFound(c)
		} else {
			internalError(c, h.Logger, err, "get user failed")
		}
		return nil, false
	}
	return u, true
}

func (h *UserHandler) updateError(c *gin.Context, err error) {
	if weak, ok := helpers.IsWeakPassword(err); ok {
		response.Coded(c, http.StatusBadRequest, string(application.CodeUpdateUserInvalidPassword), weak.Reason)
		return
	}
	switch {
	case errors.Is(err, application.ErrInvalidPassword):
		response.Coded(c, http.StatusBadRequest, string(application.CodeUpdateUserInvalidPassword), err.Error())
	case errors.Is(err, application.ErrUserAlreadyExists):
		response.Error(c, http.StatusBadRequest, application.CodeUpdateUserEmailAlreadyExists)
	case errors.Is(err, application.ErrUserNotExists):
		response.NotFound(c)
	default:
		internalError(c, h.Logger, err, "update user failed")
	}
}
