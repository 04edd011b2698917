package handlers

import (
	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fleet-route-service/internal/services"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Delivery *services.DeliveryService
	Dispatch *services.DispatchService
	Log      logger.ILogger
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !decodeJSON(c, &req, false) {
		return
	}

	order, err := h.Delivery.CreateOrder(c.Request.Context(), services.NewOrder{
		PickupAddress: req.PickupAddress,
		Pickup:        req.Pickup.Domain(),
		DropAddress:   req.DropAddress,
		Drop:          req.Drop.Domain(),
		VehicleType:   domain.VehicleType(strings.ToLower(strings.TrimSpace(req.VehicleType))),
		DriverID:      req.DriverID,
	})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusCreated, dto.Order(order))
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.Delivery.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.Order(order))
}

// ListByDriver accepts an optional comma separated status filter.
func (h *OrderHandler) ListByDriver(c *gin.Context) {
	var statuses []domain.OrderStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.OrderStatus(strings.TrimSpace(s)))
		}
	}

	orders, err := h.Delivery.DriverOrders(c.Request.Context(), c.Param("id"), statuses...)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.Orders(orders))
}

func (h *OrderHandler) Accept(c *gin.Context) {
	var req dto.AcceptOrderRequest
	if !decodeJSON(c, &req, false) {
		return
	}
	if strings.TrimSpace(req.DriverID) == "" {
		writeError(c, http.StatusBadRequest, "driver_id is required")
		return
	}

	order, err := h.Delivery.AcceptOrder(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	// The order is already accepted; a failed suggestion only leaves the list empty.
	var candidates []domain.RouteMatchCandidate
	if h.Dispatch != nil {
		candidates, err = h.Dispatch.SuggestBundles(c.Request.Context(), order.ID, 0)
		if err != nil {
			h.Log.Warning("bundle suggestions failed", logger.String("order_id", order.ID), logger.Error(err))
			candidates = nil
		}
	}
	writeJSON(c, http.StatusOK, dto.AcceptedOrder(order, candidates))
}

func (h *OrderHandler) Start(c *gin.Context) {
	var req dto.TimestampRequest
	if !decodeJSON(c, &req, true) {
		return
	}

	order, err := h.Delivery.StartDelivery(c.Request.Context(), c.Param("id"), timeOrZero(req.At))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.Order(order))
}

func (h *OrderHandler) Complete(c *gin.Context) {
	var req dto.TimestampRequest
	if !decodeJSON(c, &req, true) {
		return
	}

	order, err := h.Delivery.CompleteDelivery(c.Request.Context(), c.Param("id"), timeOrZero(req.At))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.SettledOrder(order, h.Delivery.FuelCost))
}

func (h *OrderHandler) RecordFix(c *gin.Context) {
	var req dto.RecordFixRequest
	if !decodeJSON(c, &req, false) {
		return
	}

	orderID := c.Param("id")
	fix := domain.GpsFix{
		DriverID: req.DriverID,
		OrderID:  &orderID,
		Location: domain.GeoPoint{Lat: req.Lat, Lng: req.Lng},
	}
	if req.RecordedAt != nil {
		fix.RecordedAt = *req.RecordedAt
	}

	saved, err := h.Delivery.RecordFix(c.Request.Context(), fix)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusCreated, dto.FixResponse{
		ID:         saved.ID,
		DriverID:   saved.DriverID,
		OrderID:    saved.OrderID,
		Location:   dto.Point(saved.Location),
		RecordedAt: saved.RecordedAt,
	})
}

func (h *OrderHandler) Metrics(c *gin.Context) {
	m, err := h.Delivery.LiveMetrics(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.Metrics(m))
}

func (h *OrderHandler) ETA(c *gin.Context) {
	eta, err := h.Delivery.ETA(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.ETA(eta))
}

// The service substitutes its clock for the zero time.
func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
