package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope for every API reply. Code is 0 on success and
// the HTTP status otherwise.
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      0,
		Message:   "success",
		Data:      data,
		RequestID: c.GetString(requestIDKey),
	})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:      status,
		Message:   message,
		RequestID: c.GetString(requestIDKey),
	})
}
