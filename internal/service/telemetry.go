package service

import (
	"context"

	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Dafoe17/retail-platform-backend/internal/service"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// orderMetrics 結帳與訂單狀態的計數器, 使用全域 MeterProvider
type orderMetrics struct {
	checkoutCompleted metric.Int64Counter
	checkoutFailed    metric.Int64Counter
	orderRevenue      metric.Int64Counter
	statusChanged     metric.Int64Counter
}

func newOrderMetrics() *orderMetrics {
	meter := otel.Meter(instrumentationName)
	return &orderMetrics{
		checkoutCompleted: int64Counter(meter, "shop.checkout.completed",
			metric.WithDescription("Orders created by checkout")),
		checkoutFailed: int64Counter(meter, "shop.checkout.failed",
			metric.WithDescription("Checkout attempts that were rolled back")),
		orderRevenue: int64Counter(meter, "shop.order.revenue",
			metric.WithDescription("Order totals in minor currency units"),
			metric.WithUnit("{minor_unit}")),
		statusChanged: int64Counter(meter, "shop.order.status_changed",
			metric.WithDescription("Order status transitions")),
	}
}

// int64Counter 建立失敗時記 log; 拿不到 instrument 就用 noop
func int64Counter(meter metric.Meter, name string, opts ...metric.Int64CounterOption) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, opts...)
	if err != nil {
		log.Warn().Err(err).Str("instrument", name).Msg("create otel counter failed")
	}
	if counter == nil {
		return noop.Int64Counter{}
	}
	return counter
}

func (m *orderMetrics) checkoutDone(ctx context.Context, total int64) {
	m.checkoutCompleted.Add(ctx, 1)
	m.orderRevenue.Add(ctx, total)
}

func (m *orderMetrics) checkoutFail(ctx context.Context, err error) {
	m.checkoutFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", errorCode(err))))
}

func (m *orderMetrics) transition(ctx context.Context, from, to string) {
	m.statusChanged.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func errorCode(err error) string {
	if e, ok := apperr.As(err); ok {
		return e.Code
	}
	return apperr.ErrInternal.Code
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorCode(err))
	}
	span.End()
}
