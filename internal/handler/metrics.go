package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/checkout-floor/internal/domain/checkout"
)

type metrics struct {
	assigned   metric.Int64Counter
	checkedOut metric.Int64Counter
	rejected   metric.Int64Counter
	resets     metric.Int64Counter
}

func newMetrics(meter metric.Meter, floor *checkout.Floor) (*metrics, error) {
	var (
		m   metrics
		err error
	)
	if m.assigned, err = meter.Int64Counter("checkout.items.assigned",
		metric.WithDescription("Items assigned to a register"),
		metric.WithUnit("{item}"),
	); err != nil {
		return nil, errors.Wrap(err, "items assigned counter")
	}
	if m.checkedOut, err = meter.Int64Counter("checkout.carts.checked_out",
		metric.WithDescription("Carts checked out"),
		metric.WithUnit("{cart}"),
	); err != nil {
		return nil, errors.Wrap(err, "carts checked out counter")
	}
	if m.rejected, err = meter.Int64Counter("checkout.checkout.rejected",
		metric.WithDescription("Checkouts rejected because the customer had no cart"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, errors.Wrap(err, "checkout rejected counter")
	}
	if m.resets, err = meter.Int64Counter("checkout.resets",
		metric.WithDescription("Checkout floor resets"),
	); err != nil {
		return nil, errors.Wrap(err, "resets counter")
	}
	if _, err = meter.Int64ObservableGauge("checkout.items.pending",
		metric.WithDescription("Items waiting at all registers"),
		metric.WithUnit("{item}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(floor.Current().PendingItems()))
			return nil
		}),
	); err != nil {
		return nil, errors.Wrap(err, "pending items gauge")
	}
	return &m, nil
}

func (m *metrics) itemAssigned(ctx context.Context, registerID int) {
	m.assigned.Add(ctx, 1, metric.WithAttributes(attribute.Int("checkout.register_id", registerID)))
}

func (m *metrics) cartCheckedOut(ctx context.Context) {
	m.checkedOut.Add(ctx, 1)
}

func (m *metrics) checkoutRejected(ctx context.Context) {
	m.rejected.Add(ctx, 1)
}

func (m *metrics) reset(ctx context.Context) {
	m.resets.Add(ctx, 1)
}
