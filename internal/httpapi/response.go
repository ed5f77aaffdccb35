package httpapi

import (
	"net/http"

	"github.com/montanaflynn/clarity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OutcomeHeader tells clients whether a response came from a live provider,
// a mock, or a failed call.
const OutcomeHeader = "X-Clarity-Outcome"

// errorResponse is the generic error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}

// writeResult writes body with the result's outcome header.
func writeResult(c *gin.Context, status int, res clarity.Result, body any) {
	c.Header(OutcomeHeader, string(res.Outcome))
	c.JSON(status, body)
}

// writeFailure maps a failed adapter result to 502 with its reason.
func writeFailure(c *gin.Context, res clarity.Result) {
	c.Header(OutcomeHeader, string(res.Outcome))
	writeError(c, http.StatusBadGateway, res.Reason())
}

func internalError(c *gin.Context, log *zap.Logger, err error) {
	log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	writeError(c, http.StatusInternalServerError, err.Error())
}
