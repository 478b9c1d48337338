package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Singh-Sg/loan-app/internal/application/usecase"

// Metrics holds the business counters shared by the use cases. A nil
// *Metrics records nothing.
type Metrics struct {
	repayments      metric.Int64Counter
	reconciliations metric.Int64Counter
	escalations     metric.Int64Counter
	linesChanged    metric.Int64Counter
}

// NewMetrics registers the counters on mp, or on the global provider when mp
// is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	repayments, err := meter.Int64Counter("repayments_recorded_total",
		metric.WithDescription("Repayments allocated, by outcome."))
	if err != nil {
		return nil, err
	}
	reconciliations, err := meter.Int64Counter("reconciliations_total",
		metric.WithDescription("Reconciliations created, by method."))
	if err != nil {
		return nil, err
	}
	escalations, err := meter.Int64Counter("reconciliation_escalations_total",
		metric.WithDescription("Records escalated to manual reconciliation."))
	if err != nil {
		return nil, err
	}
	linesChanged, err := meter.Int64Counter("schedule_lines_recalculated_total",
		metric.WithDescription("Schedule lines rewritten by recalculation."))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		repayments:      repayments,
		reconciliations: reconciliations,
		escalations:     escalations,
		linesChanged:    linesChanged,
	}, nil
}

func (m *Metrics) repaymentRecorded(ctx context.Context, closed bool) {
	if m == nil {
		return
	}
	m.repayments.Add(ctx, 1, metric.WithAttributes(attribute.Bool("loan_closed", closed)))
}

func (m *Metrics) reconciliationCreated(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.reconciliations.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

func (m *Metrics) recordsEscalated(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.escalations.Add(ctx, int64(n))
}

func (m *Metrics) linesRecalculated(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.linesChanged.Add(ctx, int64(n))
}
