package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/livecart/stock-engine/core/stock"
)

type ReservationRequest struct {
	*stock.ReservationRequest
}

func (r *ReservationRequest) Bind(_ *http.Request) error {
	if r.ReservationRequest == nil {
		return errors.New("missing required Reservation fields")
	}
	if r.ProductID < 1 {
		return errors.New("productId is required")
	}
	if r.ClientID < 1 {
		return errors.New("clientId is required")
	}
	if r.Quantity < 1 {
		return errors.New("requested quantity must be greater than zero")
	}
	if r.Source == "" || r.SourceKey == "" {
		return errors.New("source and sourceKey are required")
	}

	return nil
}

type ReservationResponse struct {
	stock.Reservation
}

func (r *ReservationResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewReservationListResponse(reservations []stock.Reservation) []render.Renderer {
	list := make([]render.Renderer, 0)
	for _, res := range reservations {
		list = append(list, &ReservationResponse{Reservation: res})
	}
	return list
}

type SourceKeyRequest struct {
	Source    string `json:"source"`
	SourceKey string `json:"sourceKey"`
}

func (s *SourceKeyRequest) Bind(_ *http.Request) error {
	if s.Source == "" || s.SourceKey == "" {
		return errors.New("source and sourceKey are required")
	}
	return nil
}

type CommitBatchRequest struct {
	ReservationIDs []uint64 `json:"reservationIds"`
}

func (c *CommitBatchRequest) Bind(_ *http.Request) error {
	if len(c.ReservationIDs) == 0 {
		return errors.New("reservationIds must not be empty")
	}
	return nil
}

type SettleResponse struct {
	Settled int `json:"settled"`
}

func (s *SettleResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}
