package response

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirachat/mira/internal/apperrors"
)

// Envelope is the uniform response body shared by REST and WebSocket
// frames. The transport status is always 200; the real outcome lives in
// Status/Success/Message. Clients depend on this shape.
type Envelope struct {
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Message string      `json:"message"`
}

func Wrap(data interface{}) Envelope {
	return Envelope{Data: data, Success: true, Status: http.StatusOK, Message: "ok"}
}

func WrapError(err error) Envelope {
	status := apperrors.StatusOf(err)
	if status == http.StatusInternalServerError {
		// untyped or internal failures are logged server-side and reported
		// without detail
		log.Printf("request failed: %v", err)
	}
	return Envelope{
		Data:    nil,
		Success: false,
		Status:  status,
		Message: apperrors.MessageOf(err),
	}
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Wrap(data))
}

func Fail(c *gin.Context, err error) {
	c.JSON(http.StatusOK, WrapError(err))
}
