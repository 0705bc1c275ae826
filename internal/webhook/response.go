package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// emptyTwiML acknowledges a webhook without an inline reply; replies go out
// through the REST sender.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respondTwiML(c *gin.Context) {
	c.Data(http.StatusOK, "application/xml", []byte(emptyTwiML))
}
