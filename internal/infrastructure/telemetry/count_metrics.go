package telemetry

import (
	"context"
	"fmt"
	"math"

	"github.com/erp/stockcount/internal/domain/counting"
	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrTenantID     = attribute.Key("tenant_id")
	AttrMovementType = attribute.Key("movement_type")
	AttrFromStatus   = attribute.Key("from_status")
	AttrToStatus     = attribute.Key("to_status")
)

// DeviationBuckets are histogram boundaries for absolute count deviations
var DeviationBuckets = []float64{0, 1, 2, 5, 10, 25, 50, 100, 500, 1000}

// CountMetrics records business metrics from domain events.
// It is subscribed to the event bus like any other handler.
type CountMetrics struct {
	movements         metric.Int64Counter
	movedQuantity     metric.Int64Counter
	countsRecorded    metric.Int64Counter
	countDeviation    metric.Float64Histogram
	statusTransitions metric.Int64Counter
}

// NewCountMetrics creates the instruments on meter
func NewCountMetrics(meter metric.Meter) (*CountMetrics, error) {
	m := &CountMetrics{}
	var err error

	if m.movements, err = meter.Int64Counter("stock_movements_total",
		metric.WithDescription("Applied stock movements"),
		metric.WithUnit("{movement}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create stock_movements_total: %w", err)
	}
	if m.movedQuantity, err = meter.Int64Counter("stock_moved_quantity_total",
		metric.WithDescription("Units moved by stock movements"),
		metric.WithUnit("{unit}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create stock_moved_quantity_total: %w", err)
	}
	if m.countsRecorded, err = meter.Int64Counter("count_lines_recorded_total",
		metric.WithDescription("Physical counts recorded on count lines"),
		metric.WithUnit("{count}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create count_lines_recorded_total: %w", err)
	}
	if m.countDeviation, err = meter.Float64Histogram("count_line_deviation",
		metric.WithDescription("Absolute deviation of recorded counts"),
		metric.WithUnit("{unit}"),
		metric.WithExplicitBucketBoundaries(DeviationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create count_line_deviation: %w", err)
	}
	if m.statusTransitions, err = meter.Int64Counter("count_session_transitions_total",
		metric.WithDescription("Count session status transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create count_session_transitions_total: %w", err)
	}

	return m, nil
}

// EventTypes implements shared.EventHandler
func (m *CountMetrics) EventTypes() []string {
	return []string{
		inventory.EventTypeStockMoved,
		counting.EventTypeCountRecorded,
		counting.EventTypeCountSessionStatusChanged,
	}
}

// Handle implements shared.EventHandler
func (m *CountMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := AttrTenantID.String(event.TenantID().String())

	switch e := event.(type) {
	case *inventory.StockMovedEvent:
		attrs := metric.WithAttributes(tenant, AttrMovementType.String(e.MovementType.String()))
		m.movements.Add(ctx, 1, attrs)
		m.movedQuantity.Add(ctx, e.Quantity, attrs)
	case *counting.CountRecordedEvent:
		m.countsRecorded.Add(ctx, 1, metric.WithAttributes(tenant))
		m.countDeviation.Record(ctx, math.Abs(float64(e.Deviation)), metric.WithAttributes(tenant))
	case *counting.CountSessionStatusChangedEvent:
		m.statusTransitions.Add(ctx, 1, metric.WithAttributes(tenant,
			AttrFromStatus.String(e.FromStatus.String()),
			AttrToStatus.String(e.ToStatus.String()),
		))
	}
	return nil
}

var _ shared.EventHandler = (*CountMetrics)(nil)
