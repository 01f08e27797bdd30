package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/checkout-floor/internal/domain/checkout"
)

// Add assigns an item to the customer's cart and responds with the state of
// every register.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.require(fieldCustomerID, fieldItemID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("checkout.customer_id", req.CustomerID),
		attribute.String("checkout.item_id", req.ItemID),
	)

	store := h.floor.Current()
	registerID, err := store.AssignItem(req.CustomerID, req.ItemID)
	if err != nil {
		h.writeFloorError(w, r, err)
		return
	}
	span.SetAttributes(attribute.Int("checkout.register_id", registerID))
	h.metrics.itemAssigned(ctx, registerID)

	writeState(w, http.StatusCreated, store.State())
}

// Checkout closes the customer's cart and responds with the state of every
// register.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.require(fieldCustomerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("checkout.customer_id", req.CustomerID))

	store := h.floor.Current()
	if err := store.CheckoutCustomer(req.CustomerID); err != nil {
		if errors.Is(err, checkout.ErrCartNotFound) {
			h.metrics.checkoutRejected(ctx)
		}
		h.writeFloorError(w, r, err)
		return
	}
	h.metrics.cartCheckedOut(ctx)

	writeState(w, http.StatusCreated, store.State())
}

// State responds with the state of every register without changing it.
func (h *Handler) State(w http.ResponseWriter, _ *http.Request) {
	writeState(w, http.StatusOK, h.floor.State())
}

// Reset discards every cart and reinitializes the register pool.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.floor.Reset(); err != nil {
		h.writeFloorError(w, r, err)
		return
	}
	h.metrics.reset(r.Context())
	zctx.From(r.Context()).Info("Checkout floor reset",
		zap.Int("registers", h.floor.Current().Len()),
	)
	w.WriteHeader(http.StatusOK)
}

// writeFloorError maps domain errors to responses. Unknown carts are the
// caller's fault; anything else means the floor is broken.
func (h *Handler) writeFloorError(w http.ResponseWriter, r *http.Request, err error) {
	lg := zctx.From(r.Context())

	if errors.Is(err, checkout.ErrCartNotFound) {
		lg.Warn("Checkout rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if errors.Is(err, checkout.ErrInvariantViolation) {
		lg.Error("Checkout floor invariant violated", zap.Error(err))
	} else {
		lg.Error("Checkout floor operation failed", zap.Error(err))
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}
