package api_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/livecart/stock-engine/api"
	"github.com/livecart/stock-engine/core"
	"github.com/livecart/stock-engine/core/stock"
	"github.com/livecart/stock-engine/testutil"
)

func getTestReservation() stock.Reservation {
	return stock.Reservation{
		ID:         42,
		OwnerID:    1,
		ProductID:  10,
		ClientID:   7,
		Quantity:   3,
		Status:     stock.StatusReserved,
		Source:     "live-cart",
		SourceKey:  "cart-55",
		ReservedAt: time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestReservationCreate(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	url := ts.URL + "/api/reservations"

	validRequest := stock.ReservationRequest{
		ProductID: 10,
		ClientID:  7,
		Quantity:  3,
		Source:    "live-cart",
		SourceKey: "cart-55",
	}

	tests := []struct {
		name              string
		request           stock.ReservationRequest
		reserveFunc       func(ctx context.Context, rr stock.ReservationRequest) (stock.Reservation, error)
		wantStatusCode    int
		wantResponse      *api.ReservationResponse
		wantErrorResponse *api.ErrResponse
	}{
		{
			name:    "reservation is created",
			request: validRequest,
			reserveFunc: func(ctx context.Context, rr stock.ReservationRequest) (stock.Reservation, error) {
				if rr.OwnerID != 1 {
					t.Errorf("owner id got=%d want=1", rr.OwnerID)
				}
				return getTestReservation(), nil
			},
			wantStatusCode: http.StatusCreated,
			wantResponse:   &api.ReservationResponse{Reservation: getTestReservation()},
		},
		{
			name:    "unknown product",
			request: validRequest,
			reserveFunc: func(ctx context.Context, rr stock.ReservationRequest) (stock.Reservation, error) {
				return stock.Reservation{}, stock.ErrProductNotFound
			},
			wantStatusCode:    http.StatusNotFound,
			wantErrorResponse: api.ErrNotFound,
		},
		{
			name:    "not enough stock",
			request: validRequest,
			reserveFunc: func(ctx context.Context, rr stock.ReservationRequest) (stock.Reservation, error) {
				return stock.Reservation{}, stock.ErrInsufficientStock
			},
			wantStatusCode:    http.StatusConflict,
			wantErrorResponse: api.ErrSoldOut,
		},
		{
			name:    "product lock timed out",
			request: validRequest,
			reserveFunc: func(ctx context.Context, rr stock.ReservationRequest) (stock.Reservation, error) {
				return stock.Reservation{}, stock.ErrLockTimeout
			},
			wantStatusCode:    http.StatusServiceUnavailable,
			wantErrorResponse: api.ErrBusy,
		},
		{
			name:    "unexpected error",
			request: validRequest,
			reserveFunc: func(ctx context.Context, rr stock.ReservationRequest) (stock.Reservation, error) {
				return stock.Reservation{}, errors.New("kaboom")
			},
			wantStatusCode:    http.StatusInternalServerError,
			wantErrorResponse: api.ErrInternalServer,
		},
		{
			name:           "missing quantity",
			request:        stock.ReservationRequest{ProductID: 10, ClientID: 7, Source: "live-cart", SourceKey: "cart-55"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing source key",
			request:        stock.ReservationRequest{ProductID: 10, ClientID: 7, Quantity: 3, Source: "live-cart"},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.ReserveFunc = tc.reserveFunc

			res := testutil.Put(url, tc.request, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if tc.wantResponse != nil {
				got := &api.ReservationResponse{}
				testutil.Unmarshal(res, got, t)
				if !reflect.DeepEqual(got, tc.wantResponse) {
					t.Errorf("unexpected response got=%+v want=%+v", got, tc.wantResponse)
				}
			}
			if tc.wantErrorResponse != nil {
				got := &api.ErrResponse{}
				testutil.Unmarshal(res, got, t)
				if got.StatusText != tc.wantErrorResponse.StatusText {
					t.Errorf("status text got=%s want=%s", got.StatusText, tc.wantErrorResponse.StatusText)
				}
			}
		})
	}
}

func TestReservationGet(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name               string
		url                string
		getReservationFunc func(ctx context.Context, ownerID int64, reservationID uint64) (stock.Reservation, error)
		wantStatusCode     int
		wantResponse       *api.ReservationResponse
	}{
		{
			name: "reservation is returned",
			url:  ts.URL + "/api/reservations/42",
			getReservationFunc: func(ctx context.Context, ownerID int64, reservationID uint64) (stock.Reservation, error) {
				if ownerID != 1 || reservationID != 42 {
					t.Errorf("unexpected args ownerID=%d reservationID=%d", ownerID, reservationID)
				}
				return getTestReservation(), nil
			},
			wantStatusCode: http.StatusOK,
			wantResponse:   &api.ReservationResponse{Reservation: getTestReservation()},
		},
		{
			name: "reservation does not exist",
			url:  ts.URL + "/api/reservations/42",
			getReservationFunc: func(ctx context.Context, ownerID int64, reservationID uint64) (stock.Reservation, error) {
				return stock.Reservation{}, core.ErrNotFound
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid reservation id",
			url:            ts.URL + "/api/reservations/notanumber",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.GetReservationFunc = tc.getReservationFunc

			res := testutil.SendRequest(http.MethodGet, tc.url, nil, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if tc.wantResponse != nil {
				got := &api.ReservationResponse{}
				testutil.Unmarshal(res, got, t)
				if !reflect.DeepEqual(got, tc.wantResponse) {
					t.Errorf("unexpected response got=%+v want=%+v", got, tc.wantResponse)
				}
			}
		})
	}
}

func TestReservationCommit(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		url            string
		commitFunc     func(ctx context.Context, ownerID int64, reservationID uint64) error
		wantStatusCode int
		wantStatusText string
	}{
		{
			name: "reservation is committed",
			url:  ts.URL + "/api/reservations/42/commit",
			commitFunc: func(ctx context.Context, ownerID int64, reservationID uint64) error {
				if reservationID != 42 {
					t.Errorf("reservation id got=%d want=42", reservationID)
				}
				return nil
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "reservation was already settled",
			url:  ts.URL + "/api/reservations/42/commit",
			commitFunc: func(ctx context.Context, ownerID int64, reservationID uint64) error {
				return stock.ErrInvalidReservationState
			},
			wantStatusCode: http.StatusConflict,
			wantStatusText: api.ErrReservationSettled.StatusText,
		},
		{
			name: "not enough stock to commit",
			url:  ts.URL + "/api/reservations/42/commit",
			commitFunc: func(ctx context.Context, ownerID int64, reservationID uint64) error {
				return stock.ErrInsufficientStock
			},
			wantStatusCode: http.StatusConflict,
			wantStatusText: api.ErrSoldOut.StatusText,
		},
		{
			name:           "invalid reservation id",
			url:            ts.URL + "/api/reservations/0/commit",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.CommitFunc = tc.commitFunc

			res := testutil.Put(tc.url, nil, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
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

func TestReservationRelease(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	released := false
	mockSvc.ReleaseFunc = func(ctx context.Context, ownerID int64, reservationID uint64) error {
		released = true
		return nil
	}

	res := testutil.Put(ts.URL+"/api/reservations/42/release", nil, t, testutil.RequestOptions{OwnerID: 1})

	if res.StatusCode != http.StatusOK {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}
	if !released {
		t.Error("expected the release to reach the service")
	}
}

func TestSettleBySource(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		url            string
		request        interface{}
		wantStatusCode int
		wantSettled    bool
	}{
		{
			name:           "commit by source key",
			url:            ts.URL + "/api/reservations/commit",
			request:        api.SourceKeyRequest{Source: "live-cart", SourceKey: "cart-55"},
			wantStatusCode: http.StatusOK,
			wantSettled:    true,
		},
		{
			name:           "release by source key",
			url:            ts.URL + "/api/reservations/release",
			request:        api.SourceKeyRequest{Source: "live-cart", SourceKey: "cart-55"},
			wantStatusCode: http.StatusOK,
			wantSettled:    true,
		},
		{
			name:           "missing source key",
			url:            ts.URL + "/api/reservations/commit",
			request:        api.SourceKeyRequest{Source: "live-cart"},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			settled := false
			settle := func(ctx context.Context, ownerID int64, source, sourceKey string) error {
				if source != "live-cart" || sourceKey != "cart-55" {
					t.Errorf("unexpected args source=%s sourceKey=%s", source, sourceKey)
				}
				settled = true
				return nil
			}
			mockSvc.CommitBySourceKeyFunc = settle
			mockSvc.ReleaseBySourceKeyFunc = settle

			res := testutil.Put(tc.url, tc.request, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if settled != tc.wantSettled {
				t.Errorf("settled got=%v want=%v", settled, tc.wantSettled)
			}
		})
	}
}

func TestCommitBatch(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	url := ts.URL + "/api/reservations/commit-batch"

	tests := []struct {
		name           string
		request        api.CommitBatchRequest
		commitManyFunc func(ctx context.Context, ownerID int64, reservationIDs []uint64) error
		wantStatusCode int
		wantSettled    int
	}{
		{
			name:    "batch is committed",
			request: api.CommitBatchRequest{ReservationIDs: []uint64{11, 12, 13}},
			commitManyFunc: func(ctx context.Context, ownerID int64, reservationIDs []uint64) error {
				if !reflect.DeepEqual(reservationIDs, []uint64{11, 12, 13}) {
					t.Errorf("reservation ids got=%v", reservationIDs)
				}
				return nil
			},
			wantStatusCode: http.StatusOK,
			wantSettled:    3,
		},
		{
			name:    "one reservation already settled fails the batch",
			request: api.CommitBatchRequest{ReservationIDs: []uint64{11, 12, 13}},
			commitManyFunc: func(ctx context.Context, ownerID int64, reservationIDs []uint64) error {
				return stock.ErrInvalidReservationState
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "empty batch",
			request:        api.CommitBatchRequest{},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc.CommitManyFunc = tc.commitManyFunc

			res := testutil.Put(url, tc.request, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if tc.wantSettled > 0 {
				got := &api.SettleResponse{}
				testutil.Unmarshal(res, got, t)
				if got.Settled != tc.wantSettled {
					t.Errorf("settled got=%d want=%d", got.Settled, tc.wantSettled)
				}
			}
		})
	}
}

func TestReservationListBySource(t *testing.T) {
	ts, mockSvc := setupTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		url            string
		wantStatusCode int
		wantCount      int
	}{
		{
			name:           "reservations are returned",
			url:            ts.URL + "/api/reservations?source=live-cart&sourceKey=cart-55",
			wantStatusCode: http.StatusOK,
			wantCount:      1,
		},
		{
			name:           "missing source",
			url:            ts.URL + "/api/reservations?sourceKey=cart-55",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	mockSvc.GetReservationsBySourceFunc = func(ctx context.Context, ownerID int64, source, sourceKey string) ([]stock.Reservation, error) {
		return []stock.Reservation{getTestReservation()}, nil
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := testutil.SendRequest(http.MethodGet, tc.url, nil, t, testutil.RequestOptions{OwnerID: 1})

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if tc.wantCount > 0 {
				var got []api.ReservationResponse
				testutil.Unmarshal(res, &got, t)
				if len(got) != tc.wantCount {
					t.Errorf("reservation count got=%d want=%d", len(got), tc.wantCount)
				}
			}
		})
	}
}
