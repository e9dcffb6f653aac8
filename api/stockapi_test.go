package api_test

import (
	"context"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/livecart/stock-engine/api"
	"github.com/livecart/stock-engine/core/stock"
	"github.com/livecart/stock-engine/testutil"
)

func getTestProduct() stock.Product {
	return stock.Product{
		ID:       10,
		OwnerID:  1,
		Sku:      "hoodie-xl",
		Name:     "Oversized Hoodie XL",
		Stock:    5,
		Reserved: 2,
		Created:  time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestProductCreate(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	url := ts.URL + "/api/products"

	tests := []struct {
		name              string
		request           stock.Product
		createProductFunc func(ctx context.Context, product *stock.Product) error
		wantStatusCode    int
	}{
		{
			name:    "product is created",
			request: stock.Product{Sku: "hoodie-xl", Name: "Oversized Hoodie XL"},
			createProductFunc: func(ctx context.Context, product *stock.Product) error {
				if product.OwnerID != 1 {
					t.Errorf("owner id got=%d want=1", product.OwnerID)
				}
				product.ID = 10
				return nil
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing sku",
			request:        stock.Product{Name: "Oversized Hoodie XL"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			request:        stock.Product{Sku: "hoodie-xl"},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.CreateProductFunc = tc.createProductFunc

			res := testutil.Put(url, tc.request, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if tc.wantStatusCode == http.StatusCreated {
				got := &api.ProductResponse{}
				testutil.Unmarshal(res, got, t)
				if got.ID != 10 {
					t.Errorf("product id got=%d want=10", got.ID)
				}
			}
		})
	}
}

func TestProductGet(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		url            string
		getProductFunc func(ctx context.Context, ownerID, productID int64) (stock.Product, error)
		wantStatusCode int
		wantResponse   *api.ProductResponse
	}{
		{
			name: "product is returned with availability",
			url:  ts.URL + "/api/products/10",
			getProductFunc: func(ctx context.Context, ownerID, productID int64) (stock.Product, error) {
				if ownerID != 1 || productID != 10 {
					t.Errorf("unexpected args ownerID=%d productID=%d", ownerID, productID)
				}
				return getTestProduct(), nil
			},
			wantStatusCode: http.StatusOK,
			wantResponse:   &api.ProductResponse{Product: getTestProduct(), Available: 3},
		},
		{
			name: "product does not exist",
			url:  ts.URL + "/api/products/10",
			getProductFunc: func(ctx context.Context, ownerID, productID int64) (stock.Product, error) {
				return stock.Product{}, stock.ErrProductNotFound
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid product id",
			url:            ts.URL + "/api/products/notanumber",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.GetProductFunc = tc.getProductFunc

			res := testutil.SendRequest(http.MethodGet, tc.url, nil, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if tc.wantResponse != nil {
				got := &api.ProductResponse{}
				testutil.Unmarshal(res, got, t)
				if !reflect.DeepEqual(got, tc.wantResponse) {
					t.Errorf("unexpected response got=%+v want=%+v", got, tc.wantResponse)
				}
			}
		})
	}
}

func TestGetAvailability(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	mockSvc.GetProductFunc = func(ctx context.Context, ownerID, productID int64) (stock.Product, error) {
		return getTestProduct(), nil
	}
	mockSvc.CheckAvailabilityFunc = func(ctx context.Context, ownerID, productID int64) (stock.Availability, error) {
		return stock.Availability{ProductID: productID, Stock: 5, Reserved: 2, Available: 3}, nil
	}

	res := testutil.SendRequest(http.MethodGet, ts.URL+"/api/products/10/availability", nil, t, testutil.RequestOptions{OwnerID: 1})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	got := &api.AvailabilityResponse{}
	testutil.Unmarshal(res, got, t)

	want := &api.AvailabilityResponse{Availability: stock.Availability{ProductID: 10, Stock: 5, Reserved: 2, Available: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected response got=%+v want=%+v", got, want)
	}
}

func TestAdjust(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	url := ts.URL + "/api/products/10/adjustments"

	mockSvc.GetProductFunc = func(ctx context.Context, ownerID, productID int64) (stock.Product, error) {
		return getTestProduct(), nil
	}
	mockSvc.CheckAvailabilityFunc = func(ctx context.Context, ownerID, productID int64) (stock.Availability, error) {
		return stock.Availability{ProductID: productID, Stock: 15, Reserved: 2, Available: 13}, nil
	}

	tests := []struct {
		name            string
		request         stock.AdjustmentRequest
		adjustStockFunc func(ctx context.Context, ar stock.AdjustmentRequest) error
		wantStatusCode  int
		wantStatusText  string
	}{
		{
			name:    "stock is adjusted in",
			request: stock.AdjustmentRequest{Quantity: 10, Type: stock.MovementIn, Source: "delivery"},
			adjustStockFunc: func(ctx context.Context, ar stock.AdjustmentRequest) error {
				if ar.OwnerID != 1 || ar.ProductID != 10 {
					t.Errorf("unexpected args ownerID=%d productID=%d", ar.OwnerID, ar.ProductID)
				}
				return nil
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:    "adjusting out more than is free",
			request: stock.AdjustmentRequest{Quantity: 10, Type: stock.MovementOut, Source: "stocktaking"},
			adjustStockFunc: func(ctx context.Context, ar stock.AdjustmentRequest) error {
				return stock.ErrInsufficientStock
			},
			wantStatusCode: http.StatusConflict,
			wantStatusText: api.ErrSoldOut.StatusText,
		},
		{
			name:           "reservation movement types are rejected",
			request:        stock.AdjustmentRequest{Quantity: 10, Type: stock.MovementReserve, Source: "delivery"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing quantity",
			request:        stock.AdjustmentRequest{Type: stock.MovementIn, Source: "delivery"},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.AdjustStockFunc = tc.adjustStockFunc

			res := testutil.Put(url, tc.request, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if tc.wantStatusCode == http.StatusOK {
				got := &api.AvailabilityResponse{}
				testutil.Unmarshal(res, got, t)
				if got.Stock != 15 {
					t.Errorf("stock got=%d want=15", got.Stock)
				}
			}
			if tc.wantStatusText != "" {
				got := &api.ErrResponse{}
				testutil.Unmarshal(res, got, t)
				if got.StatusText != tc.wantStatusText {
					t.Errorf("status text got=%s want=%s", got.StatusText, tc.wantStatusText)
				}
			}
		})
	}
}

func TestProductList(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	mockSvc.GetAllProductsFunc = func(ctx context.Context, ownerID int64, limit, offset int) ([]stock.Product, error) {
		if limit != 2 || offset != 4 {
			t.Errorf("pagination got limit=%d offset=%d want limit=2 offset=4", limit, offset)
		}
		return []stock.Product{getTestProduct()}, nil
	}

	res := testutil.SendRequest(http.MethodGet, ts.URL+"/api/products?limit=2&offset=4", nil, t, testutil.RequestOptions{OwnerID: 1})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	var got []api.ProductResponse
	testutil.Unmarshal(res, &got, t)
	if len(got) != 1 {
		t.Fatalf("product count got=%d want=1", len(got))
	}
	if got[0].Available != 3 {
		t.Errorf("available got=%d want=3", got[0].Available)
	}
}

func TestListMovements(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	mockSvc.GetProductFunc = func(ctx context.Context, ownerID, productID int64) (stock.Product, error) {
		return getTestProduct(), nil
	}
	mockSvc.GetMovementsFunc = func(ctx context.Context, ownerID, productID int64, limit, offset int) ([]stock.Movement, error) {
		return []stock.Movement{
			{ID: 1, OwnerID: 1, ProductID: 10, Type: stock.MovementIn, Quantity: 5, Source: "delivery"},
			{ID: 2, OwnerID: 1, ProductID: 10, Type: stock.MovementReserve, Quantity: 3, Source: "live-cart", SourceKey: "cart-55"},
		}, nil
	}

	res := testutil.SendRequest(http.MethodGet, ts.URL+"/api/products/10/movements", nil, t, testutil.RequestOptions{OwnerID: 1})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	var got []api.MovementResponse
	testutil.Unmarshal(res, &got, t)
	if len(got) != 2 {
		t.Fatalf("movement count got=%d want=2", len(got))
	}
	if got[1].Type != stock.MovementReserve {
		t.Errorf("movement type got=%s want=%s", got[1].Type, stock.MovementReserve)
	}
}
