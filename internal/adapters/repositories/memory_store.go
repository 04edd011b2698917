package repositories

import (
	"cmp"
	"context"
	"fleet-route-service/internal/domain"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps drivers, orders and fixes in process memory. It backs
// local runs without DATABASE_URL and service tests. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	drivers map[string]domain.Driver
	orders  map[string]*domain.Order
	fixes   map[string][]domain.GpsFix
	loose   []domain.GpsFix
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers: map[string]domain.Driver{},
		orders:  map[string]*domain.Order{},
		fixes:   map[string][]domain.GpsFix{},
	}
}

// Seed loads seed data into the store.
func (m *MemoryStore) Seed(ctx context.Context, seed *Seed, now time.Time) error {
	for _, d := range seed.DomainDrivers() {
		m.PutDriver(d)
	}
	for _, o := range seed.DomainOrders(now) {
		if err := m.Create(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) PutDriver(d domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[d.ID] = d
}

func (m *MemoryStore) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Driver) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drivers[id]
	if !ok {
		return nil, fmt.Errorf("get driver %s: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (m *MemoryStore) Create(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; ok {
		return fmt.Errorf("create order %s: duplicate id", o.ID)
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("get order %s: %w", id, domain.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, cloneOrder(o))
	}
	slices.SortFunc(out, func(a, b *domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryStore) ListByDriver(ctx context.Context, driverID string, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if !o.AssignedTo(driverID) {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, o.Status) {
			continue
		}
		out = append(out, cloneOrder(o))
	}

	slices.SortFunc(out, func(a, b *domain.Order) int {
		switch {
		case a.Sequence != nil && b.Sequence == nil:
			return -1
		case a.Sequence == nil && b.Sequence != nil:
			return 1
		case a.Sequence != nil && b.Sequence != nil:
			if c := cmp.Compare(*a.Sequence, *b.Sequence); c != 0 {
				return c
			}
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, o *domain.Order, expected domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.orders[o.ID]
	if !ok {
		return fmt.Errorf("update order %s: %w", o.ID, domain.ErrNotFound)
	}
	if cur.Status != expected {
		return fmt.Errorf("update order %s: status is no longer %s: %w", o.ID, expected, domain.ErrInvalidTransition)
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *MemoryStore) UpdateSequences(ctx context.Context, driverID string, sequences map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := make(map[int]string, len(sequences))
	for id, seq := range sequences {
		if seq < 1 {
			return fmt.Errorf("update sequences: order %s: sequence %d must be >= 1", id, seq)
		}
		if other, dup := used[seq]; dup {
			return fmt.Errorf("update sequences: orders %s and %s share sequence %d", other, id, seq)
		}
		used[seq] = id
	}

	for _, o := range m.orders {
		if !o.AssignedTo(driverID) || o.Status == domain.StatusDelivered {
			continue
		}
		if seq, ok := sequences[o.ID]; ok {
			s := seq
			o.Sequence = &s
		} else {
			o.Sequence = nil
		}
	}
	return nil
}

func (m *MemoryStore) Append(ctx context.Context, f domain.GpsFix) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.OrderID == nil {
		m.loose = append(m.loose, f)
		return nil
	}
	m.fixes[*f.OrderID] = append(m.fixes[*f.OrderID], f)
	return nil
}

func (m *MemoryStore) ListByOrder(ctx context.Context, orderID string) ([]domain.GpsFix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedTrace(m.fixes[orderID]), nil
}

func (m *MemoryStore) ListByOrders(ctx context.Context, orderIDs []string) (map[string][]domain.GpsFix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string][]domain.GpsFix, len(orderIDs))
	for _, id := range orderIDs {
		if trace, ok := m.fixes[id]; ok {
			out[id] = sortedTrace(trace)
		}
	}
	return out, nil
}

func (m *MemoryStore) Last(ctx context.Context, orderID string) (*domain.GpsFix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trace := sortedTrace(m.fixes[orderID])
	if len(trace) == 0 {
		return nil, nil
	}
	last := trace[len(trace)-1]
	return &last, nil
}

func sortedTrace(trace []domain.GpsFix) []domain.GpsFix {
	out := slices.Clone(trace)
	slices.SortStableFunc(out, func(a, b domain.GpsFix) int {
		if c := a.RecordedAt.Compare(b.RecordedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.DriverID = clonePtr(o.DriverID)
	cp.ActualDistanceKm = clonePtr(o.ActualDistanceKm)
	cp.FuelConsumedLiters = clonePtr(o.FuelConsumedLiters)
	cp.TravelTimeMinutes = clonePtr(o.TravelTimeMinutes)
	cp.Sequence = clonePtr(o.Sequence)
	cp.FlagReason = clonePtr(o.FlagReason)
	cp.StartedAt = clonePtr(o.StartedAt)
	cp.CompletedAt = clonePtr(o.CompletedAt)
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
