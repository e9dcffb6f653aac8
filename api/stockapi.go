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

type StockService interface {
	CreateProduct(ctx context.Context, product *stock.Product) error
	GetProduct(ctx context.Context, ownerID, productID int64) (stock.Product, error)
	GetAllProducts(ctx context.Context, ownerID int64, limit, offset int) ([]stock.Product, error)
	CheckAvailability(ctx context.Context, ownerID, productID int64) (stock.Availability, error)
	AdjustStock(ctx context.Context, ar stock.AdjustmentRequest) error
	GetMovements(ctx context.Context, ownerID, productID int64, limit, offset int) ([]stock.Movement, error)
}

type StockApi struct {
	service StockService
}

func NewStockApi(service StockService) *StockApi {
	return &StockApi{service: service}
}

const (
	CtxKeyProduct CtxKey = "product"
)

func (a *StockApi) ConfigureRouter(r chi.Router) {
	r.With(Paginate).Get("/", a.List)
	r.Put("/", a.Create)

	r.Route("/{productID}", func(r chi.Router) {
		r.Use(a.ProductCtx)
		r.Get("/", a.Get)
		r.Get("/availability", a.GetAvailability)
		r.Put("/adjustments", a.Adjust)
		r.With(Paginate).Get("/movements", a.ListMovements)
	})
}

func (a *StockApi) List(w http.ResponseWriter, r *http.Request) {
	limit := r.Context().Value(CtxKeyLimit).(int)
	offset := r.Context().Value(CtxKeyOffset).(int)

	products, err := a.service.GetAllProducts(r.Context(), owner(r), limit, offset)
	if err != nil {
		RenderStockErr(w, r, err)
		return
	}

	RenderList(w, r, NewProductListResponse(products))
}

func (a *StockApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateProductRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	product := data.Product
	product.OwnerID = owner(r)
	if err := a.service.CreateProduct(r.Context(), product); err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewProductResponse(*product))
}

func (a *StockApi) ProductCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "productID")
		productID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || productID < 1 {
			Render(w, r, ErrInvalidRequest(errors.New("invalid product id")))
			return
		}

		product, err := a.service.GetProduct(r.Context(), owner(r), productID)
		if err != nil {
			RenderStockErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyProduct, product)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *StockApi) Get(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(CtxKeyProduct).(stock.Product)

	render.Status(r, http.StatusOK)
	Render(w, r, NewProductResponse(product))
}

func (a *StockApi) GetAvailability(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(CtxKeyProduct).(stock.Product)

	availability, err := a.service.CheckAvailability(r.Context(), product.OwnerID, product.ID)
	if err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &AvailabilityResponse{Availability: availability})
}

func (a *StockApi) Adjust(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(CtxKeyProduct).(stock.Product)

	data := &AdjustmentRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	ar := *data.AdjustmentRequest
	ar.OwnerID = product.OwnerID
	ar.ProductID = product.ID
	if err := a.service.AdjustStock(r.Context(), ar); err != nil {
		RenderStockErr(w, r, err)
		return
	}

	availability, err := a.service.CheckAvailability(r.Context(), product.OwnerID, product.ID)
	if err != nil {
		RenderStockErr(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	Render(w, r, &AvailabilityResponse{Availability: availability})
}

func (a *StockApi) ListMovements(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(CtxKeyProduct).(stock.Product)
	limit := r.Context().Value(CtxKeyLimit).(int)
	offset := r.Context().Value(CtxKeyOffset).(int)

	movements, err := a.service.GetMovements(r.Context(), product.OwnerID, product.ID, limit, offset)
	if err != nil {
		RenderStockErr(w, r, err)
		return
	}

	RenderList(w, r, NewMovementListResponse(movements))
}
