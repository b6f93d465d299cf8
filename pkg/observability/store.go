package observability

import (
	"context"

	"github.com/aretw0/fieldwork/pkg/ports"
)

// InstrumentStore wraps store so every call is counted in m.StoreOps.
// The wrapper is transactional only when store is.
func InstrumentStore(store ports.RecordStore, m *Metrics) ports.RecordStore {
	if m == nil {
		return store
	}
	base := &instrumentedStore{next: store, metrics: m}
	if tx, ok := store.(ports.Transactional); ok {
		return &instrumentedTxStore{instrumentedStore: base, tx: tx}
	}
	return base
}

type instrumentedStore struct {
	next    ports.RecordStore
	metrics *Metrics
}

func (s *instrumentedStore) Insert(ctx context.Context, table string, rec ports.Record) (ports.Record, error) {
	out, err := s.next.Insert(ctx, table, rec)
	s.metrics.ObserveStoreOp(table, "insert", err)
	return out, err
}

func (s *instrumentedStore) InsertMany(ctx context.Context, table string, recs []ports.Record) ([]ports.Record, error) {
	out, err := s.next.InsertMany(ctx, table, recs)
	s.metrics.ObserveStoreOp(table, "insert_many", err)
	return out, err
}

func (s *instrumentedStore) Upsert(ctx context.Context, table string, rec ports.Record) (ports.Record, error) {
	out, err := s.next.Upsert(ctx, table, rec)
	s.metrics.ObserveStoreOp(table, "upsert", err)
	return out, err
}

func (s *instrumentedStore) Select(ctx context.Context, table string, filter ports.Filter) ([]ports.Record, error) {
	out, err := s.next.Select(ctx, table, filter)
	s.metrics.ObserveStoreOp(table, "select", err)
	return out, err
}

func (s *instrumentedStore) Delete(ctx context.Context, table string, filter ports.Filter) error {
	err := s.next.Delete(ctx, table, filter)
	s.metrics.ObserveStoreOp(table, "delete", err)
	return err
}

type instrumentedTxStore struct {
	*instrumentedStore
	tx ports.Transactional
}

func (s *instrumentedTxStore) InTx(ctx context.Context, fn func(tx ports.RecordStore) error) error {
	return s.tx.InTx(ctx, func(tx ports.RecordStore) error {
		return fn(&instrumentedStore{next: tx, metrics: s.metrics})
	})
}
