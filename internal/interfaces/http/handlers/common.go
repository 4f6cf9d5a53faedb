// Package handlers implements the HTTP API on gin.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ibocheck/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps application errors to HTTP status codes.  Server-side
// failures are masked.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	// A lookup miss anywhere in the chain is still a 404.
	if errors.IsNotFound(err) {
		status = http.StatusNotFound
	}
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, ErrorResponse{
			Code:    string(errors.CodeInternal),
			Message: "internal server error",
		})
		return
	}

	resp := ErrorResponse{Code: string(code), Message: err.Error()}
	var ae *errors.AppError
	if errors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	c.AbortWithStatusJSON(status, resp)
}
