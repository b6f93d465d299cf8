package observability

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/fieldwork/pkg/domain"
)

// Save outcomes used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeValidation   = "validation"
	OutcomePrecondition = "precondition"
	OutcomePersistence  = "persistence"
	OutcomeCanceled     = "canceled"
)

// Metrics groups the collectors of the save pipeline.
type Metrics struct {
	Saves              *prometheus.CounterVec
	SaveDuration       prometheus.Histogram
	ValidationFailures *prometheus.CounterVec
	StoreOps           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg, if non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldwork_section_saves_total",
				Help: "Total number of section save attempts by outcome",
			},
			[]string{"outcome"},
		),
		SaveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fieldwork_section_save_duration_seconds",
				Help:    "Duration of section saves",
				Buckets: prometheus.DefBuckets,
			},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldwork_validation_errors_total",
				Help: "Total number of validation errors by field kind",
			},
			[]string{"field"},
		),
		StoreOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldwork_store_operations_total",
				Help: "Total number of record store operations",
			},
			[]string{"table", "op", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Saves, m.SaveDuration, m.ValidationFailures, m.StoreOps)
	}
	return m
}

// ObserveSave records one section save.
func (m *Metrics) ObserveSave(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(Outcome(err)).Inc()
	m.SaveDuration.Observe(elapsed.Seconds())
}

// ObserveValidation counts validation errors. Indexed fields such as
// section_2_question_0_options are collapsed to their kind (options).
func (m *Metrics) ObserveValidation(errs []domain.ValidationError) {
	if m == nil {
		return
	}
	for _, e := range errs {
		m.ValidationFailures.WithLabelValues(FieldKind(e.Field)).Inc()
	}
}

// ObserveStoreOp records one record store call.
func (m *Metrics) ObserveStoreOp(table, op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StoreOps.WithLabelValues(table, op, result).Inc()
}

// Outcome classifies a save error.
func Outcome(err error) string {
	var (
		validation   *domain.DraftValidationError
		precondition *domain.PreconditionError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &validation):
		return OutcomeValidation
	case errors.As(err, &precondition):
		return OutcomePrecondition
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	}
	return OutcomePersistence
}
