package observability_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/observability"
	"github.com/aretw0/fieldwork/pkg/ports"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, observability.OutcomeSuccess, observability.Outcome(nil))
	assert.Equal(t, observability.OutcomeValidation, observability.Outcome(&domain.DraftValidationError{}))
	assert.Equal(t, observability.OutcomePrecondition, observability.Outcome(&domain.PreconditionError{Err: domain.ErrSectionNotFound}))
	assert.Equal(t, observability.OutcomeCanceled, observability.Outcome(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.Equal(t, observability.OutcomePersistence, observability.Outcome(errors.New("db down")))
}

func TestFieldKind(t *testing.T) {
	tests := map[string]string{
		"title":                             "title",
		"section_0_title":                   "section_title",
		"section_1_question_2":              "question",
		"section_1_question_2_options":      "question_options",
		"section_1_question_2_skip_logic_0": "question_skip_logic",
		"section_3_skip_logic":              "section_skip_logic",
	}
	for in, want := range tests {
		assert.Equal(t, want, observability.FieldKind(in), in)
	}
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveSave(nil, 10*time.Millisecond)
	m.ObserveSave(&domain.DraftValidationError{}, time.Millisecond)
	m.ObserveValidation([]domain.ValidationError{{Field: "section_0_title"}, {Field: "section_1_title"}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Saves.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Saves.WithLabelValues("validation")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("section_title")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SaveDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveSave(nil, time.Second)
		m.ObserveValidation([]domain.ValidationError{{Field: "title"}})
		m.ObserveStoreOp("surveys", "insert", nil)
	})
}

func TestInstrumentStore(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	store := observability.InstrumentStore(memory.NewRecordStore(), m)
	ctx := context.Background()

	_, err := store.Insert(ctx, ports.TableSurveys, ports.Record{"title": "Encuesta"})
	require.NoError(t, err)

	tx, ok := store.(ports.Transactional)
	require.True(t, ok, "memory store is transactional, so the wrapper must be too")
	require.NoError(t, tx.InTx(ctx, func(tx ports.RecordStore) error {
		return tx.Delete(ctx, ports.TableSurveys, ports.Where("title", "Encuesta"))
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("surveys", "insert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("surveys", "delete", "ok")))
}
