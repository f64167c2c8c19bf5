package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of a failed request that carries a reason.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dispatched is returned for requests that start background work.
type Dispatched struct {
	Status   string `json:"status"`
	Category string `json:"category"`
}

// JSON sends data as the bare response body with status 200.
// Dashboard clients consume documents directly, so no envelope is added.
func JSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// OK sends an empty 200 response.
func OK(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Accepted sends a 202 response describing dispatched background work.
func Accepted(c *gin.Context, category string) {
	c.JSON(http.StatusAccepted, Dispatched{
		Status:   "dispatched",
		Category: category,
	})
}

// NotFound sends a 404 with an empty body.
func NotFound(c *gin.Context) {
	c.Status(http.StatusNotFound)
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, "CONFLICT", message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
