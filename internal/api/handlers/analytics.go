package handlers

import (
	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/services"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
	Log       logger.ILogger
}

func (h *AnalyticsHandler) Leaderboard(c *gin.Context) {
	records, err := h.Analytics.Leaderboard(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.Leaderboard(records))
}

func (h *AnalyticsHandler) Fleet(c *gin.Context) {
	stats, err := h.Analytics.FleetStats(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.FleetStats(stats))
}

// FuelSavings prices the fuel difference between a planned and an actual distance.
func (h *AnalyticsHandler) FuelSavings(c *gin.Context) {
	planned, err := strconv.ParseFloat(c.Query("planned_km"), 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "planned_km must be a number")
		return
	}
	actual, err := strconv.ParseFloat(c.Query("actual_km"), 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "actual_km must be a number")
		return
	}

	s, err := h.Analytics.FuelSavings(planned, actual, domain.VehicleType(c.DefaultQuery("vehicle_type", string(domain.VehicleCar))))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.FuelSavingsResponse{LitersSaved: s.LitersSaved, CostSaved: s.CostSaved})
}
