package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/livecart/stock-engine/core/stock"
)

type ReservationService interface {
	Reserve(ctx context.Context, rr stock.ReservationRequest) (stock.Reservation, error)
	Commit(ctx context.Context, ownerID int64, reservationID uint64) error
	Release(ctx context.Context, ownerID int64, reservationID uint64) error
	CommitMany(ctx context.Context, ownerID int64, reservationIDs []uint64) error
	CommitBySourceKey(ctx context.Context, ownerID int64, source, sourceKey string) error
	ReleaseBySourceKey(ctx context.Context, ownerID int64, source, sourceKey string) error
	GetReservation(ctx context.Context, ownerID int64, reservationID uint64) (stock.Reservation, error)
	GetReservationsBySource(ctx context.Context, ownerID int64, source, sourceKey string) ([]stock.Reservation, error)
}

type ReservationApi struct {
	service ReservationService
}

func NewReservationApi(service ReservationService) *ReservationApi {
	return &ReservationApi{service: service}
}

const (
	CtxKeyReservationID CtxKey = "reservationID"
)

func (a *ReservationApi) ConfigureRouter(r chi.Router) {
	r.Put("/", a.Create)
	r.Get("/", a.ListBySource)
	r.Put("/commit", a.CommitBySource)
	r.Put("/release", a.ReleaseBySource)
	r.Put("/commit-batch", a.CommitBatch)

	r.Route("/{ID}", func(r chi.Router) {
		r.Use(a.ReservationIDCtx)
		r.Get("/", a.Get)
		r.Put("/commit", a.Commit)
		r.Put("/release", a.Release)
	})
}

func (a *ReservationApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &ReservationRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	rr := *data.ReservationRequest
	rr.OwnerID = owner(r)
	res, err := a.service.Reserve(r.Context(), rr)
	if err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, &ReservationResponse{Reservation: res})
}

func (a *ReservationApi) ReservationIDCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "ID")
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil || id < 1 {
			Render(w, r, ErrInvalidRequest(errors.New("invalid reservation id")))
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyReservationID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *ReservationApi) Get(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(CtxKeyReservationID).(uint64)

	res, err := a.service.GetReservation(r.Context(), owner(r), id)
	if err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &ReservationResponse{Reservation: res})
}

func (a *ReservationApi) Commit(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(CtxKeyReservationID).(uint64)

	if err := a.service.Commit(r.Context(), owner(r), id); err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &SettleResponse{Settled: 1})
}

func (a *ReservationApi) Release(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(CtxKeyReservationID).(uint64)

	if err := a.service.Release(r.Context(), owner(r), id); err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &SettleResponse{Settled: 1})
}

func (a *ReservationApi) ListBySource(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	sourceKey := r.URL.Query().Get("sourceKey")
	if source == "" || sourceKey == "" {
		Render(w, r, ErrInvalidRequest(errors.New("source and sourceKey are required")))
		return
	}

	res, err := a.service.GetReservationsBySource(r.Context(), owner(r), source, sourceKey)
	if err != nil {
		RenderStockErr(w, r, err)
		return
	}

	RenderList(w, r, NewReservationListResponse(res))
}

func (a *ReservationApi) CommitBySource(w http.ResponseWriter, r *http.Request) {
	a.settleBySource(w, r, a.service.CommitBySourceKey)
}

func (a *ReservationApi) ReleaseBySource(w http.ResponseWriter, r *http.Request) {
	a.settleBySource(w, r, a.service.ReleaseBySourceKey)
}

func (a *ReservationApi) settleBySource(w http.ResponseWriter, r *http.Request,
	settle func(ctx context.Context, ownerID int64, source, sourceKey string) error) {

	data := &SourceKeyRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := settle(r.Context(), owner(r), data.Source, data.SourceKey); err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &SettleResponse{})
}

func (a *ReservationApi) CommitBatch(w http.ResponseWriter, r *http.Request) {
	data := &CommitBatchRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := a.service.CommitMany(r.Context(), owner(r), data.ReservationIDs); err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &SettleResponse{Settled: len(data.ReservationIDs)})
}
