package stock

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/livecart/stock-engine/core"
)

func rollback(ctx context.Context, tx core.Transaction, err error) {
	if tx == nil {
		return
	}
	e := tx.Rollback(ctx)
	if e != nil {
		log.Warn().Err(err).Msg("failed to rollback")
	}
}

type Transactional interface {
	BeginTransaction(ctx context.Context) (core.Transaction, error)
}

type Repository interface {
	ProductRepository
	ReservationRepository
	MovementRepository
}

type ProductRepository interface {
	Transactional
	GetProduct(ctx context.Context, ownerID, productID int64, options ...core.QueryOptions) (Product, error)
	GetAllProducts(ctx context.Context, ownerID int64, limit, offset int, options ...core.QueryOptions) ([]Product, error)

	SaveProduct(ctx context.Context, product *Product, options ...core.UpdateOptions) error
	// SaveProductCounters persists only stock and reserved. It is the one
	// write path for the counters and is only called inside an engine
	// transaction that read the row FOR UPDATE.
	SaveProductCounters(ctx context.Context, product Product, options ...core.UpdateOptions) error
}

type ReservationRepository interface {
	Transactional
	GetReservation(ctx context.Context, ownerID int64, ID uint64, options ...core.QueryOptions) (Reservation, error)
	// GetActiveBySource returns only reserved-status rows for the given
	// originating action, oldest first.
	GetActiveBySource(ctx context.Context, ownerID int64, source, sourceKey string, options ...core.QueryOptions) ([]Reservation, error)

	SaveReservation(ctx context.Context, reservation *Reservation, options ...core.UpdateOptions) error
	// TransitionReservation moves a reservation out of the reserved state.
	// The precondition (current status reserved) is enforced by the store;
	// a reservation already terminal yields ErrInvalidReservationState.
	TransitionReservation(ctx context.Context, ownerID int64, ID uint64, to ReservationStatus, at time.Time, options ...core.UpdateOptions) error
}

type MovementRepository interface {
	Transactional
	GetMovements(ctx context.Context, ownerID, productID int64, limit, offset int, options ...core.QueryOptions) ([]Movement, error)

	SaveMovement(ctx context.Context, movement *Movement, options ...core.UpdateOptions) error
}

type Queue interface {
	PublishAvailability(ctx context.Context, availability Availability) error
	PublishReservation(ctx context.Context, reservation Reservation) error
}
