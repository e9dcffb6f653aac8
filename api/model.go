package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"github.com/livecart/stock-engine/core"
	"github.com/livecart/stock-engine/core/stock"
)

//--
// Error response payloads & renderers
//--

// ErrResponse renderer type for handling all sorts of errors.
//
// In the best case scenario, the excellent github.com/pkg/errors package
// helps reveal information on the error, setting it on Err, and in the Render()
// method, using it to set the application-specific error code in AppCode.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	AppCode    int64  `json:"code,omitempty"`  // application-specific error code
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func Render(w http.ResponseWriter, r *http.Request, rnd render.Renderer) {
	if err := render.Render(w, r, rnd); err != nil {
		log.Warn().Err(err).Msg("failed to render")
	}
}

func RenderList(w http.ResponseWriter, r *http.Request, l []render.Renderer) {
	if err := render.RenderList(w, r, l); err != nil {
		log.Warn().Err(err).Msg("failed to render")
	}
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}
var ErrInternalServer = &ErrResponse{
	Err:            nil,
	HTTPStatusCode: http.StatusInternalServerError,
	StatusText:     "Internal server error.",
	ErrorText:      "An internal server error has occurred.",
}
var ErrSoldOut = &ErrResponse{
	HTTPStatusCode: http.StatusConflict,
	StatusText:     "Sold out.",
	ErrorText:      "Not enough stock is available to satisfy the request.",
}
var ErrReservationSettled = &ErrResponse{
	HTTPStatusCode: http.StatusConflict,
	StatusText:     "Reservation already settled.",
	ErrorText:      "The reservation has already been committed or released.",
}
var ErrBusy = &ErrResponse{
	HTTPStatusCode: http.StatusServiceUnavailable,
	StatusText:     "Temporarily unavailable.",
	ErrorText:      "The product is busy, please retry.",
}

// RenderStockErr translates engine errors to responses. Lock timeouts are
// deliberately vague in the body so clients retry rather than special-case.
func RenderStockErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, stock.ErrProductNotFound) || errors.Is(err, core.ErrNotFound):
		Render(w, r, ErrNotFound)
	case errors.Is(err, stock.ErrInsufficientStock):
		Render(w, r, ErrSoldOut)
	case errors.Is(err, stock.ErrInvalidReservationState):
		Render(w, r, ErrReservationSettled)
	case errors.Is(err, stock.ErrLockTimeout):
		Render(w, r, ErrBusy)
	default:
		log.Error().Stack().Err(err).Msg("unexpected error handling request")
		Render(w, r, ErrInternalServer)
	}
}
