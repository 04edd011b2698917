package handlers

import (
	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/services"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type DispatchHandler struct {
	Dispatch *services.DispatchService
	Log      logger.ILogger
}

// Candidates lists pending orders that can be bundled into the given active order.
func (h *DispatchHandler) Candidates(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			writeError(c, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	candidates, err := h.Dispatch.SuggestBundles(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.Candidates(candidates))
}

func (h *DispatchHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if !decodeJSON(c, &req, true) {
		return
	}

	start := req.Start.Domain()
	if start != nil {
		if err := start.Validate("start"); err != nil {
			respondError(c, h.Log, err)
			return
		}
	}

	plan, err := h.Dispatch.OptimizeDriverRoute(c.Request.Context(), c.Param("id"), start)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if plan.ProviderErr != nil {
		h.Log.Warning("route optimization degraded",
			logger.String("driver_id", c.Param("id")),
			logger.Error(plan.ProviderErr),
		)
	}
	writeJSON(c, http.StatusOK, dto.Plan(plan))
}
