package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/livecart/stock-engine/core/stock"
)

type CreateProductRequest struct {
	*stock.Product
}

func (p *CreateProductRequest) Bind(_ *http.Request) error {
	if p.Product == nil {
		return errors.New("missing required Product fields")
	}
	if p.Sku == "" {
		return errors.New("sku is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}

	return nil
}

type ProductResponse struct {
	stock.Product
	Available int64 `json:"available"`
}

func NewProductResponse(product stock.Product) *ProductResponse {
	return &ProductResponse{Product: product, Available: product.Available()}
}

func (p *ProductResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewProductListResponse(products []stock.Product) []render.Renderer {
	list := make([]render.Renderer, 0)
	for _, product := range products {
		list = append(list, NewProductResponse(product))
	}
	return list
}

type AvailabilityResponse struct {
	stock.Availability
}

func (a *AvailabilityResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type AdjustmentRequest struct {
	*stock.AdjustmentRequest
}

func (a *AdjustmentRequest) Bind(_ *http.Request) error {
	if a.AdjustmentRequest == nil {
		return errors.New("missing required Adjustment fields")
	}
	if a.Type != stock.MovementIn && a.Type != stock.MovementOut {
		return errors.New("type must be in or out")
	}
	if a.Quantity < 1 {
		return errors.New("quantity must be greater than zero")
	}
	if a.Source == "" {
		return errors.New("source is required")
	}

	return nil
}

type MovementResponse struct {
	stock.Movement
}

func (m *MovementResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewMovementListResponse(movements []stock.Movement) []render.Renderer {
	list := make([]render.Renderer, 0)
	for _, movement := range movements {
		list = append(list, &MovementResponse{Movement: movement})
	}
	return list
}
