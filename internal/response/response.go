// Package response writes the JSON envelope shared by every endpoint:
// {success, data?, message?, error?}.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/harentsoaR/medico-api/internal/apperr"
)

// Debug includes the underlying error text in failed responses. Set once at startup.
var Debug bool

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func Message(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes the envelope for err and logs server-side failures.
func Error(c *gin.Context, err error) {
	c.JSON(statusAndBody(c, err))
}

// Abort is Error for middleware: it stops the handler chain.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusAndBody(c, err))
}

func statusAndBody(c *gin.Context, err error) (int, Envelope) {
	appErr := apperr.As(err)
	status := appErr.HTTPStatus()
	if status >= 500 {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	body := Envelope{Success: false, Message: appErr.Message}
	if Debug && appErr.Err != nil {
		body.Error = appErr.Err.Error()
	}
	return status, body
}
