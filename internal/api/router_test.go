package api_test

import (
	"bytes"
	"encoding/json"
	"fleet-route-service/internal/adapters/directions"
	"fleet-route-service/internal/adapters/repositories"
	"fleet-route-service/internal/api"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/services"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

var t0 = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func buildTestRouter(t *testing.T) (http.Handler, *repositories.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryStore()
	store.PutDriver(domain.Driver{ID: "drv-1", FullName: "Asha", VehicleType: domain.VehicleCar})

	provider := directions.NewNearestNeighborProvider(0)
	monitor := services.NewDeviationMonitor(services.DefaultDeviationConfig())

	delivery := services.NewDeliveryService(services.DeliveryDeps{
		Orders:            store,
		Fixes:             store,
		Directions:        provider,
		Monitor:           monitor,
		FuelPricePerLiter: 100,
		Now:               func() time.Time { return t0 },
	})
	dispatch := services.NewDispatchService(
		store, nil,
		services.NewMultiStopOptimizer(provider, 0, nil),
		services.NewRouteMatcher(services.DefaultMatchConfig()),
		nil,
	)
	analytics := services.NewAnalyticsService(store, store, store, monitor, 100)

	return api.NewRouter(api.Deps{Delivery: delivery, Dispatch: dispatch, Analytics: analytics}), store
}

func doRequest(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

type orderBody struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	DriverID          *string  `json:"driver_id"`
	PlannedDistanceKm float64  `json:"planned_distance_km"`
	ActualDistanceKm  *float64 `json:"actual_distance_km"`
	IsFlagged         bool     `json:"is_flagged"`
	FlagReason        *string  `json:"flag_reason"`
	Sequence          *int     `json:"sequence"`
}

func createOrder(t *testing.T, h http.Handler, driverID *string) orderBody {
	t.Helper()
	w := doRequest(h, http.MethodPost, "/orders", map[string]any{
		"pickup":    map[string]float64{"lat": 0, "lng": 0},
		"drop":      map[string]float64{"lat": 0, "lng": 0.1},
		"driver_id": driverID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create order: status %d body %s", w.Code, w.Body.String())
	}
	return decode[orderBody](t, w)
}

func TestHealth(t *testing.T) {
	h, _ := buildTestRouter(t)
	w := doRequest(h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	h, _ := buildTestRouter(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "missing drop", body: map[string]any{"pickup": map[string]float64{"lat": 0, "lng": 0}}, want: http.StatusBadRequest},
		{name: "unknown field", body: map[string]any{"pickup_address": "x", "colour": "red"}, want: http.StatusBadRequest},
		{name: "bad latitude", body: map[string]any{
			"pickup": map[string]float64{"lat": 99, "lng": 0},
			"drop":   map[string]float64{"lat": 0, "lng": 0},
		}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(h, http.MethodPost, "/orders", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	h, _ := buildTestRouter(t)
	order := createOrder(t, h, nil)

	if w := doRequest(h, http.MethodGet, "/orders/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown order: expected 404, got %d", w.Code)
	}
	if w := doRequest(h, http.MethodPost, "/orders/"+order.ID+"/complete", nil); w.Code != http.StatusConflict {
		t.Fatalf("complete pending: expected 409, got %d", w.Code)
	}

	w := doRequest(h, http.MethodPost, "/orders/"+order.ID+"/accept", map[string]string{"driver_id": "drv-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("accept: status %d body %s", w.Code, w.Body.String())
	}
	accepted := decode[struct {
		Order      orderBody         `json:"order"`
		Candidates []json.RawMessage `json:"candidates"`
	}](t, w)
	if got := accepted.Order; got.Status != "assigned" || got.DriverID == nil || *got.DriverID != "drv-1" {
		t.Fatalf("accepted order = %+v", got)
	}
	if accepted.Candidates == nil {
		t.Fatalf("accept response must carry a candidates list")
	}

	if w := doRequest(h, http.MethodPost, "/orders/"+order.ID+"/start", map[string]time.Time{"at": t0}); w.Code != http.StatusOK {
		t.Fatalf("start: status %d body %s", w.Code, w.Body.String())
	}

	for i, lng := range []float64{0, 0.1, 0.2} {
		w := doRequest(h, http.MethodPost, "/orders/"+order.ID+"/fixes", map[string]any{
			"driver_id":   "drv-1",
			"lat":         0,
			"lng":         lng,
			"recorded_at": t0.Add(time.Duration(i*10) * time.Minute),
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("fix %d: status %d body %s", i, w.Code, w.Body.String())
		}
	}

	w = doRequest(h, http.MethodGet, "/orders/"+order.ID+"/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", w.Code)
	}
	metrics := decode[struct {
		FixCount  int  `json:"fix_count"`
		IsFlagged bool `json:"is_flagged"`
	}](t, w)
	if metrics.FixCount != 3 || !metrics.IsFlagged {
		t.Fatalf("metrics = %+v", metrics)
	}

	w = doRequest(h, http.MethodGet, "/orders/"+order.ID+"/eta", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("eta: status %d body %s", w.Code, w.Body.String())
	}

	w = doRequest(h, http.MethodPost, "/orders/"+order.ID+"/complete", map[string]time.Time{"at": t0.Add(30 * time.Minute)})
	if w.Code != http.StatusOK {
		t.Fatalf("complete: status %d body %s", w.Code, w.Body.String())
	}
	settled := decode[struct {
		orderBody
		FuelConsumedLiters *float64 `json:"fuel_consumed_liters"`
		FuelCost           *float64 `json:"fuel_cost"`
	}](t, w)
	if done := settled.orderBody; done.Status != "delivered" || !done.IsFlagged || done.ActualDistanceKm == nil {
		t.Fatalf("completed order = %+v", done)
	}
	if settled.FuelConsumedLiters == nil || settled.FuelCost == nil {
		t.Fatalf("settled order must report fuel and its cost: %s", w.Body.String())
	}
	if want := *settled.FuelConsumedLiters * 100; math.Abs(*settled.FuelCost-want) > 1e-9 {
		t.Fatalf("fuel_cost = %v, want %v", *settled.FuelCost, want)
	}

	w = doRequest(h, http.MethodGet, "/drivers/drv-1/orders?status=delivered", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("driver orders: status %d", w.Code)
	}
	if list := decode[struct{ Orders []orderBody }](t, w); len(list.Orders) != 1 {
		t.Fatalf("expected 1 delivered order, got %d", len(list.Orders))
	}
	if w := doRequest(h, http.MethodGet, "/drivers/drv-1/orders?status=lost", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status filter: expected 400, got %d", w.Code)
	}

	w = doRequest(h, http.MethodGet, "/analytics/leaderboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard: status %d", w.Code)
	}
	board := decode[struct {
		Drivers []struct {
			Rank            int    `json:"rank"`
			DriverID        string `json:"driver_id"`
			TotalDeliveries int    `json:"total_deliveries"`
		} `json:"drivers"`
	}](t, w)
	if len(board.Drivers) != 1 || board.Drivers[0].DriverID != "drv-1" || board.Drivers[0].TotalDeliveries != 1 {
		t.Fatalf("leaderboard = %+v", board)
	}

	w = doRequest(h, http.MethodGet, "/analytics/fleet", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fleet: status %d", w.Code)
	}
	if stats := decode[struct {
		DeliveredOrders int `json:"delivered_orders"`
		FlaggedOrders   int `json:"flagged_orders"`
	}](t, w); stats.DeliveredOrders != 1 || stats.FlaggedOrders != 1 {
		t.Fatalf("fleet stats = %+v", stats)
	}
}

func TestDispatchEndpoints(t *testing.T) {
	h, _ := buildTestRouter(t)
	driver := "drv-1"

	first := createOrder(t, h, &driver)
	second := createOrder(t, h, &driver)

	if w := doRequest(h, http.MethodPost, "/orders/"+first.ID+"/accept", map[string]string{"driver_id": driver}); w.Code != http.StatusOK {
		t.Fatalf("accept: status %d", w.Code)
	}

	w := doRequest(h, http.MethodGet, "/orders/"+first.ID+"/candidates?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("candidates: status %d body %s", w.Code, w.Body.String())
	}
	cands := decode[struct {
		Candidates []struct {
			Order        orderBody `json:"order"`
			IsReturnTrip bool      `json:"is_return_trip"`
		} `json:"candidates"`
	}](t, w)
	if len(cands.Candidates) != 1 || cands.Candidates[0].Order.ID != second.ID {
		t.Fatalf("candidates = %+v", cands)
	}

	if w := doRequest(h, http.MethodGet, "/orders/"+first.ID+"/candidates?limit=abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", w.Code)
	}

	w = doRequest(h, http.MethodPost, "/drivers/drv-1/optimize", map[string]any{"start": map[string]float64{"lat": 0, "lng": 0}})
	if w.Code != http.StatusOK {
		t.Fatalf("optimize: status %d body %s", w.Code, w.Body.String())
	}
	plan := decode[struct {
		Optimized bool `json:"optimized"`
		Stops     []struct {
			Sequence int `json:"sequence"`
		} `json:"stops"`
	}](t, w)
	if !plan.Optimized || len(plan.Stops) != 2 || plan.Stops[0].Sequence != 1 {
		t.Fatalf("plan = %+v", plan)
	}

	if w := doRequest(h, http.MethodPost, "/drivers/drv-1/optimize", nil); w.Code != http.StatusOK {
		t.Fatalf("optimize with empty body: status %d body %s", w.Code, w.Body.String())
	}
}

func TestFuelSavingsEndpoint(t *testing.T) {
	h, _ := buildTestRouter(t)

	w := doRequest(h, http.MethodGet, "/analytics/fuel-savings?planned_km=30&actual_km=15&vehicle_type=car", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	got := decode[struct {
		LitersSaved float64 `json:"liters_saved"`
		CostSaved   float64 `json:"cost_saved"`
	}](t, w)
	if got.LitersSaved != 1 || got.CostSaved != 100 {
		t.Fatalf("fuel savings = %+v", got)
	}

	if w := doRequest(h, http.MethodGet, "/analytics/fuel-savings?planned_km=x&actual_km=1", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
