package stockrepo

import (
	"context"
	"time"

	"github.com/livecart/stock-engine/core"
	"github.com/livecart/stock-engine/core/stock"
	"github.com/livecart/stock-engine/db"
	"github.com/livecart/stock-engine/test"
)

type MockRepo struct {
	GetProductFunc          func(ctx context.Context, ownerID, productID int64, options ...core.QueryOptions) (stock.Product, error)
	GetAllProductsFunc      func(ctx context.Context, ownerID int64, limit, offset int, options ...core.QueryOptions) ([]stock.Product, error)
	SaveProductFunc         func(ctx context.Context, product *stock.Product, options ...core.UpdateOptions) error
	SaveProductCountersFunc func(ctx context.Context, product stock.Product, options ...core.UpdateOptions) error

	GetReservationFunc        func(ctx context.Context, ownerID int64, ID uint64, options ...core.QueryOptions) (stock.Reservation, error)
	GetActiveBySourceFunc     func(ctx context.Context, ownerID int64, source, sourceKey string, options ...core.QueryOptions) ([]stock.Reservation, error)
	SaveReservationFunc       func(ctx context.Context, reservation *stock.Reservation, options ...core.UpdateOptions) error
	TransitionReservationFunc func(ctx context.Context, ownerID int64, ID uint64, to stock.ReservationStatus, at time.Time, options ...core.UpdateOptions) error

	GetMovementsFunc func(ctx context.Context, ownerID, productID int64, limit, offset int, options ...core.QueryOptions) ([]stock.Movement, error)
	SaveMovementFunc func(ctx context.Context, movement *stock.Movement, options ...core.UpdateOptions) error

	BeginTransactionFunc func(ctx context.Context) (core.Transaction, error)

	*test.CallWatcher
}

func (r MockRepo) GetProduct(ctx context.Context, ownerID, productID int64, options ...core.QueryOptions) (stock.Product, error) {
	r.AddCall(ctx, ownerID, productID)
	return r.GetProductFunc(ctx, ownerID, productID, options...)
}

func (r MockRepo) GetAllProducts(ctx context.Context, ownerID int64, limit, offset int, options ...core.QueryOptions) ([]stock.Product, error) {
	r.AddCall(ctx, ownerID, limit, offset)
	return r.GetAllProductsFunc(ctx, ownerID, limit, offset, options...)
}

func (r MockRepo) SaveProduct(ctx context.Context, product *stock.Product, options ...core.UpdateOptions) error {
	r.AddCall(ctx, product)
	return r.SaveProductFunc(ctx, product, options...)
}

func (r MockRepo) SaveProductCounters(ctx context.Context, product stock.Product, options ...core.UpdateOptions) error {
	r.AddCall(ctx, product)
	return r.SaveProductCountersFunc(ctx, product, options...)
}

func (r MockRepo) GetReservation(ctx context.Context, ownerID int64, ID uint64, options ...core.QueryOptions) (stock.Reservation, error) {
	r.AddCall(ctx, ownerID, ID)
	return r.GetReservationFunc(ctx, ownerID, ID, options...)
}

func (r MockRepo) GetActiveBySource(ctx context.Context, ownerID int64, source, sourceKey string, options ...core.QueryOptions) ([]stock.Reservation, error) {
	r.AddCall(ctx, ownerID, source, sourceKey)
	return r.GetActiveBySourceFunc(ctx, ownerID, source, sourceKey, options...)
}

func (r MockRepo) SaveReservation(ctx context.Context, reservation *stock.Reservation, options ...core.UpdateOptions) error {
	r.AddCall(ctx, reservation)
	return r.SaveReservationFunc(ctx, reservation, options...)
}

func (r MockRepo) TransitionReservation(ctx context.Context, ownerID int64, ID uint64, to stock.ReservationStatus, at time.Time, options ...core.UpdateOptions) error {
	r.AddCall(ctx, ownerID, ID, to)
	return r.TransitionReservationFunc(ctx, ownerID, ID, to, at, options...)
}

func (r MockRepo) GetMovements(ctx context.Context, ownerID, productID int64, limit, offset int, options ...core.QueryOptions) ([]stock.Movement, error) {
	r.AddCall(ctx, ownerID, productID, limit, offset)
	return r.GetMovementsFunc(ctx, ownerID, productID, limit, offset, options...)
}

func (r MockRepo) SaveMovement(ctx context.Context, movement *stock.Movement, options ...core.UpdateOptions) error {
	r.AddCall(ctx, movement)
	return r.SaveMovementFunc(ctx, movement, options...)
}

func (r MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	r.AddCall(ctx)
	return r.BeginTransactionFunc(ctx)
}

func NewMockRepo() MockRepo {
	return MockRepo{
		GetProductFunc: func(ctx context.Context, ownerID, productID int64, options ...core.QueryOptions) (stock.Product, error) {
			return stock.Product{}, nil
		},
		GetAllProductsFunc: func(ctx context.Context, ownerID int64, limit, offset int, options ...core.QueryOptions) ([]stock.Product, error) {
			return nil, nil
		},
		SaveProductFunc: func(ctx context.Context, product *stock.Product, options ...core.UpdateOptions) error {
			return nil
		},
		SaveProductCountersFunc: func(ctx context.Context, product stock.Product, options ...core.UpdateOptions) error {
			return nil
		},
		GetReservationFunc: func(ctx context.Context, ownerID int64, ID uint64, options ...core.QueryOptions) (stock.Reservation, error) {
			return stock.Reservation{}, nil
		},
		GetActiveBySourceFunc: func(ctx context.Context, ownerID int64, source, sourceKey string, options ...core.QueryOptions) ([]stock.Reservation, error) {
			return nil, nil
		},
		SaveReservationFunc: func(ctx context.Context, reservation *stock.Reservation, options ...core.UpdateOptions) error {
			return nil
		},
		TransitionReservationFunc: func(ctx context.Context, ownerID int64, ID uint64, to stock.ReservationStatus, at time.Time, options ...core.UpdateOptions) error {
			return nil
		},
		GetMovementsFunc: func(ctx context.Context, ownerID, productID int64, limit, offset int, options ...core.QueryOptions) ([]stock.Movement, error) {
			return nil, nil
		},
		SaveMovementFunc: func(ctx context.Context, movement *stock.Movement, options ...core.UpdateOptions) error {
			return nil
		},
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) { return db.NewMockTransaction(), nil },
		CallWatcher:          test.NewCallWatcher(),
	}
}
