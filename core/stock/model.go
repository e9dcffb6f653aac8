// Package stock implements the reservation engine for live-commerce sales.
// Product counters are only ever mutated through the Service in this package;
// every mutation happens inside a transaction that re-reads the counters with
// a row lock, so available = stock - reserved never goes negative no matter
// how callers interleave.
package stock

import (
	"time"

	"github.com/pkg/errors"
)

// Product is an entity. The catalog owns everything about it except the two
// counters, which belong to this engine.
type Product struct {
	ID       int64     `json:"id"`
	OwnerID  int64     `json:"ownerId"`
	Sku      string    `json:"sku"`
	Name     string    `json:"name"`
	Stock    int64     `json:"stock"`
	Reserved int64     `json:"reserved"`
	Created  time.Time `json:"created"`
}

// Available is the quantity a new reservation may still claim.
func (p Product) Available() int64 {
	a := p.Stock - p.Reserved
	if a < 0 {
		return 0
	}
	return a
}

// Availability is a value object. A point-in-time read of the counters.
type Availability struct {
	ProductID int64 `json:"productId"`
	Stock     int64 `json:"stock"`
	Reserved  int64 `json:"reserved"`
	Available int64 `json:"available"`
}

type ReservationStatus string

const (
	StatusReserved  ReservationStatus = "reserved"
	StatusCommitted ReservationStatus = "committed"
	StatusReleased  ReservationStatus = "released"
)

func ParseReservationStatus(v string) (ReservationStatus, error) {
	switch ReservationStatus(v) {
	case StatusReserved, StatusCommitted, StatusReleased:
		return ReservationStatus(v), nil
	default:
		return "", errors.New("invalid reservation status")
	}
}

// Terminal reports whether no further transitions are permitted.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCommitted || s == StatusReleased
}

// Reservation is an entity. A temporary hold of quantity against a product on
// behalf of a client. Born reserved, it transitions exactly once to committed
// or released.
type Reservation struct {
	ID          uint64            `json:"id"`
	OwnerID     int64             `json:"ownerId"`
	ProductID   int64             `json:"productId"`
	ClientID    int64             `json:"clientId"`
	Quantity    int64             `json:"quantity"`
	Status      ReservationStatus `json:"status"`
	Source      string            `json:"source"`
	SourceKey   string            `json:"sourceKey"`
	ReservedAt  time.Time         `json:"reservedAt"`
	CommittedAt *time.Time        `json:"committedAt,omitempty"`
	ReleasedAt  *time.Time        `json:"releasedAt,omitempty"`
}

type MovementType string

const (
	MovementIn        MovementType = "in"
	MovementOut       MovementType = "out"
	MovementReserve   MovementType = "reserve"
	MovementUnreserve MovementType = "unreserve"
	MovementCommit    MovementType = "commit"
)

func ParseMovementType(v string) (MovementType, error) {
	switch MovementType(v) {
	case MovementIn, MovementOut, MovementReserve, MovementUnreserve, MovementCommit:
		return MovementType(v), nil
	default:
		return "", errors.New("invalid movement type")
	}
}

// Movement is an entity. One append-only ledger row per stock-affecting
// event. The ledger is diagnostic; the counters and reservation rows are
// authoritative.
type Movement struct {
	ID        uint64            `json:"id"`
	OwnerID   int64             `json:"ownerId"`
	ProductID int64             `json:"productId"`
	Type      MovementType      `json:"type"`
	Quantity  int64             `json:"quantity"`
	Source    string            `json:"source"`
	SourceKey string            `json:"sourceKey"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Created   time.Time         `json:"created"`
}

// ReservationRequest is a value object. Source and SourceKey identify the
// originating business action (a live-cart row, an order line) and make
// retries idempotent.
type ReservationRequest struct {
	OwnerID   int64  `json:"ownerId"`
	ProductID int64  `json:"productId"`
	ClientID  int64  `json:"clientId"`
	Quantity  int64  `json:"quantity"`
	Source    string `json:"source"`
	SourceKey string `json:"sourceKey"`
}

// AdjustmentRequest is a value object. A direct stock correction (delivery,
// stocktaking) that bypasses reservations.
type AdjustmentRequest struct {
	OwnerID   int64             `json:"ownerId"`
	ProductID int64             `json:"productId"`
	Quantity  int64             `json:"quantity"`
	Type      MovementType      `json:"type"`
	Source    string            `json:"source"`
	SourceKey string            `json:"sourceKey"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
