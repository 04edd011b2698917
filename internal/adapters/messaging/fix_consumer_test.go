package messaging

import (
	"context"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/logger"
	"fmt"
	"testing"
	"time"
)

type fakeRecorder struct {
	err      error
	recorded []domain.GpsFix
}

func (f *fakeRecorder) RecordFix(ctx context.Context, fix domain.GpsFix) (domain.GpsFix, error) {
	if f.err != nil {
		return fix, f.err
	}
	f.recorded = append(f.recorded, fix)
	return fix, nil
}

func TestFixConsumerProcess(t *testing.T) {
	valid := []byte(`{"driver_id":"d1","order_id":"o1","lat":12.97,"lng":77.59,"recorded_at":"2026-01-01T08:00:00Z"}`)

	tests := []struct {
		name string
		body []byte
		err  error
		want disposition
	}{
		{name: "recorded", body: valid, want: ack},
		{name: "malformed json", body: []byte(`{"driver_id":`), want: reject},
		{name: "validation", body: valid, err: &domain.ValidationError{Field: "location", Reason: "out of range"}, want: reject},
		{name: "unknown order", body: valid, err: fmt.Errorf("record fix: %w", domain.ErrNotFound), want: reject},
		{name: "order not active", body: valid, err: fmt.Errorf("record fix: %w", domain.ErrInvalidTransition), want: reject},
		{name: "storage outage", body: valid, err: errors.New("connection refused"), want: requeue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{err: tt.err}
			c := &FixConsumer{recorder: rec, queue: DefaultFixQueue}
			c.log = logger.Nop()

			got := c.process(context.Background(), tt.body)
			if got != tt.want {
				t.Fatalf("disposition = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFixConsumerProcessMapsMessage(t *testing.T) {
	rec := &fakeRecorder{}
	c := &FixConsumer{recorder: rec, log: logger.Nop()}

	body := []byte(`{"driver_id":"d1","lat":1.5,"lng":2.5,"recorded_at":"2026-01-01T08:00:00Z"}`)
	if got := c.process(context.Background(), body); got != ack {
		t.Fatalf("disposition = %s, want ack", got)
	}
	if len(rec.recorded) != 1 {
		t.Fatalf("expected 1 recorded fix, got %d", len(rec.recorded))
	}

	fix := rec.recorded[0]
	if fix.OrderID != nil {
		t.Fatalf("expected no order id, got %q", *fix.OrderID)
	}
	if fix.Location.Lat != 1.5 || fix.Location.Lng != 2.5 {
		t.Fatalf("location = %v", fix.Location)
	}
	if !fix.RecordedAt.Equal(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("recorded_at = %v", fix.RecordedAt)
	}
}
