package handlers

import (
	"encoding/json"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/platform/obs"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// respondError maps service errors onto HTTP statuses. Internal failures are
// logged and never echoed to the client.
func respondError(c *gin.Context, log logger.ILogger, err error) {
	var pe *domain.ProviderError
	switch {
	case domain.IsValidation(err):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(c, http.StatusConflict, err.Error())
	case errors.As(err, &pe):
		log.Error("provider failed",
			logger.String("request_id", obs.RequestID(c.Request.Context())),
			logger.Error(err),
		)
		writeError(c, http.StatusBadGateway, "routing provider unavailable")
	default:
		log.Error("request failed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.String("request_id", obs.RequestID(c.Request.Context())),
			logger.Error(err),
		)
		writeError(c, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object with no unknown fields.
// An empty body leaves v untouched when optional is set.
func decodeJSON(c *gin.Context, v any, optional bool) bool {
	dec := json.NewDecoder(c.Request.Body)
	defer c.Request.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeError(c, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(c, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}
