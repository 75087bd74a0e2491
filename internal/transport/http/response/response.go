package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidhub/internal/apperr"
)

// APIResponse is the single envelope for every JSON response. Code mirrors
// the HTTP status.
type APIResponse struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, APIResponse{
		Code:    status,
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, message string, details ...string) {
	c.JSON(status, APIResponse{
		Code:    status,
		Success: false,
		Message: message,
		Errors:  details,
	})
}

// Fail writes err using its classification. Upstream causes are never echoed.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	Error(c, apperr.KindOf(err).HTTPStatus(), apperr.PublicMessage(err), apperr.Details(err)...)
}

// Abort is Fail for middleware.
func Abort(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}
