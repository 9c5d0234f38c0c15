package httpapi

import (
	"github.com/gin-gonic/gin"
)

const (
	errCodeBadRequest         = "BAD_REQUEST"
	errCodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	errCodeUnauthorized       = "AUTH_UNAUTHORIZED"
	errCodeUserUnavailable    = "AUTH_USER_UNAVAILABLE"
	errCodeForbidden          = "AUTH_FORBIDDEN"
	errCodeInternal           = "INTERNAL_ERROR"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, errorResponse{
		Success:   false,
		Error:     msg,
		ErrorCode: code,
	})
}

func abortWithError(c *gin.Context, status int, code, msg string) {
	writeError(c, status, code, msg)
	c.Abort()
}
