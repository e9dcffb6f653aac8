package queue

import (
	"context"

	"github.com/livecart/stock-engine/core/stock"
	"github.com/livecart/stock-engine/test"
)

type MockQueue struct {
	PublishAvailabilityFunc func(ctx context.Context, availability stock.Availability) error
	PublishReservationFunc  func(ctx context.Context, reservation stock.Reservation) error
	test.CallWatcher
}

func NewMockQueue() *MockQueue {
	return &MockQueue{
		PublishAvailabilityFunc: func(ctx context.Context, availability stock.Availability) error {
			return nil
		},
		PublishReservationFunc: func(ctx context.Context, reservation stock.Reservation) error {
			return nil
		},
		CallWatcher: *test.NewCallWatcher(),
	}
}

func (m *MockQueue) PublishAvailability(ctx context.Context, availability stock.Availability) error {
	m.AddCall(ctx, availability)
	return m.PublishAvailabilityFunc(ctx, availability)
}

func (m *MockQueue) PublishReservation(ctx context.Context, reservation stock.Reservation) error {
	m.AddCall(ctx, reservation)
	return m.PublishReservationFunc(ctx, reservation)
}
