package dto

import "fleet-route-service/internal/domain"

type SavingsDTO struct {
	DistanceSavedKm  float64 `json:"distance_saved_km"`
	PercentSaved     float64 `json:"percent_saved"`
	TimeSavedMinutes int     `json:"time_saved_minutes"`
}

func Savings(s domain.Savings) SavingsDTO {
	return SavingsDTO{
		DistanceSavedKm:  s.DistanceSavedKm,
		PercentSaved:     s.PercentSaved,
		TimeSavedMinutes: s.TimeSavedMinutes,
	}
}

// OptimizeRequest may override the start point; otherwise the driver's live
// position or first pickup is used.
type OptimizeRequest struct {
	Start *PointDTO `json:"start"`
}

type PlanStopResponse struct {
	Sequence         int           `json:"sequence"`
	OriginalSequence int           `json:"original_sequence"`
	Order            OrderResponse `json:"order"`
}

type PlanResponse struct {
	Start                PointDTO           `json:"start"`
	Stops                []PlanStopResponse `json:"stops"`
	TotalDistanceKm      float64            `json:"total_distance_km"`
	TotalDurationMinutes int                `json:"total_duration_minutes"`
	Savings              SavingsDTO         `json:"savings"`
	Optimized            bool               `json:"optimized"`
	ProviderError        string             `json:"provider_error,omitempty"`
}

func Plan(p *domain.OptimizedRoutePlan) PlanResponse {
	res := PlanResponse{
		Start:                Point(p.Start),
		Stops:                make([]PlanStopResponse, 0, len(p.Stops)),
		TotalDistanceKm:      p.TotalDistanceKm,
		TotalDurationMinutes: p.TotalDurationMinutes,
		Savings:              Savings(p.Savings),
		Optimized:            p.Optimized,
	}
	if p.ProviderErr != nil {
		res.ProviderError = p.ProviderErr.Error()
	}
	for _, s := range p.Stops {
		res.Stops = append(res.Stops, PlanStopResponse{
			Sequence:         s.Sequence,
			OriginalSequence: s.OriginalSequence,
			Order:            Order(&s.Order),
		})
	}
	return res
}

type CandidateResponse struct {
	Order          OrderResponse `json:"order"`
	PickupDetourKm float64       `json:"pickup_detour_km"`
	DropDetourKm   float64       `json:"drop_detour_km"`
	IsReturnTrip   bool          `json:"is_return_trip"`
	TotalDetourKm  float64       `json:"total_detour_km"`
	Savings        SavingsDTO    `json:"savings"`
}

type ListCandidatesResponse struct {
	Candidates []CandidateResponse `json:"candidates"`
}

func Candidates(cs []domain.RouteMatchCandidate) ListCandidatesResponse {
	res := ListCandidatesResponse{Candidates: make([]CandidateResponse, 0, len(cs))}
	for _, c := range cs {
		res.Candidates = append(res.Candidates, CandidateResponse{
			Order:          Order(&c.Order),
			PickupDetourKm: c.PickupDetourKm,
			DropDetourKm:   c.DropDetourKm,
			IsReturnTrip:   c.IsReturnTrip,
			TotalDetourKm:  c.TotalDetourKm,
			Savings:        Savings(c.Savings),
		})
	}
	return res
}

// AcceptOrderResponse pairs the accepted order with the bundling suggestions
// for the driver's other pending orders.
type AcceptOrderResponse struct {
	Order      OrderResponse       `json:"order"`
	Candidates []CandidateResponse `json:"candidates"`
}

func AcceptedOrder(o *domain.Order, cs []domain.RouteMatchCandidate) AcceptOrderResponse {
	return AcceptOrderResponse{Order: Order(o), Candidates: Candidates(cs).Candidates}
}
