package handler

import (
	"net/http"

	"github.com/go-playground/form/v4"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/checkout-floor/internal/domain/checkout"
)

// Handler serves the checkout floor over HTTP, translating requests into
// floor operations and rendering the resulting register state as JSON.
type Handler struct {
	floor   *checkout.Floor
	forms   *form.Decoder
	metrics *metrics
}

// NewHandler constructs a Handler for the given floor. Metrics are recorded
// with meter.
func NewHandler(floor *checkout.Floor, meter metric.Meter) (*Handler, error) {
	m, err := newMetrics(meter, floor)
	if err != nil {
		return nil, err
	}
	return &Handler{
		floor:   floor,
		forms:   form.NewDecoder(),
		metrics: m,
	}, nil
}

// Register adds the checkout routes to router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/state", h.State).Methods(http.MethodGet)
	router.HandleFunc("/state", h.Reset).Methods(http.MethodDelete)
	router.HandleFunc("/add", h.Add).Methods(http.MethodPost)
	router.HandleFunc("/checkout", h.Checkout).Methods(http.MethodPost)
}

// Health is a liveness probe that does not touch the floor.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
