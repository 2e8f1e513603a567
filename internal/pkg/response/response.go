package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every endpoint answers with a flat JSON envelope carrying a success
// flag: `{"success":true, ...}` on the happy path, `{"success":false,
// "error":"..."}` otherwise. Payload fields are merged into the envelope
// rather than nested under a data key.

// Success writes a 200 envelope with the payload fields merged in.
func Success(c *gin.Context, payload gin.H) {
	SuccessWithStatus(c, http.StatusOK, payload)
}

// SuccessWithStatus writes a success envelope with an explicit status.
func SuccessWithStatus(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Error writes a failure envelope with a human-readable message.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

// BadRequest writes a 400 failure envelope.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 failure envelope.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden writes a 403 failure envelope.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound writes a 404 failure envelope.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError writes a 500 failure envelope.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
