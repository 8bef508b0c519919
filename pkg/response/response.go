package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the envelope of every error response: {"detail": ...}.
// Detail is either a bare error code, a CodedDetail or a field->message map.
type ErrorBody struct {
	Detail any `json:"detail"`
}

// CodedDetail carries an error code together with a human readable reason.
type CodedDetail struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// List wraps a collection result.
type List[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func NewList[T any](items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items, Count: len(items)}
}

// Error aborts the chain and writes {"detail": detail}.
func Error(ctx *gin.Context, status int, detail any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.AbortWithStatusJSON(status, ErrorBody{Detail: detail})
}

// Coded aborts with {"detail": {"error_code": code, "message": message}}.
func Coded(ctx *gin.Context, status int, code, message string) {
	Error(ctx, status, CodedDetail{ErrorCode: code, Message: message})
}

func Unauthorized(ctx *gin.Context) {
	ctx.Header("WWW-Authenticate", "Bearer")
	Error(ctx, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(ctx *gin.Context) {
	Error(ctx, http.StatusForbidden, "Forbidden")
}

func NotFound(ctx *gin.Context) {
	Error(ctx, http.StatusNotFound, "Not Found")
}

func Internal(ctx *gin.Context) {
	Error(ctx, http.StatusInternalServerError, "Internal Server Error")
}
