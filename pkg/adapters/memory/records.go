package memory

import (
	"context"
	"sync"

	"github.com/aretw0/fieldwork/internal/records"
	"github.com/aretw0/fieldwork/pkg/ports"
)

type table struct {
	rows  map[string]ports.Record
	order []string
}

func (t *table) clone() *table {
	c := &table{
		rows:  make(map[string]ports.Record, len(t.rows)),
		order: append([]string(nil), t.order...),
	}
	for id, r := range t.rows {
		c.rows[id] = records.Clone(r)
	}
	return c
}

func (t *table) put(rec ports.Record) {
	id := rec.ID()
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = rec
}

// RecordStore implements ports.RecordStore and ports.Transactional in memory.
// Safe for concurrent use.
type RecordStore struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{tables: make(map[string]*table)}
}

func (s *RecordStore) tableLocked(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: make(map[string]ports.Record)}
		s.tables[name] = t
	}
	return t
}

// Insert stores a copy of rec, assigning an id if it has none. A record whose
// id is already stored is rejected with domain.ErrDuplicateRecord.
func (s *RecordStore) Insert(ctx context.Context, name string, rec ports.Record) (ports.Record, error) {
	out, err := s.InsertMany(ctx, name, []ports.Record{rec})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// InsertMany stores copies of every record, or none of them when any id is
// already stored or repeated within recs.
func (s *RecordStore) InsertMany(ctx context.Context, name string, recs []ports.Record) ([]ports.Record, error) {
	stored := make([]ports.Record, len(recs))
	for i, rec := range recs {
		stored[i] = records.WithID(rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tableLocked(name)
	if err := records.CheckNew(stored, func(id string) bool {
		_, ok := t.rows[id]
		return ok
	}); err != nil {
		return nil, err
	}

	out := make([]ports.Record, 0, len(stored))
	for _, rec := range stored {
		t.put(rec)
		out = append(out, records.Clone(rec))
	}
	return out, nil
}

// Upsert replaces the record with the same id, or inserts it.
func (s *RecordStore) Upsert(ctx context.Context, name string, rec ports.Record) (ports.Record, error) {
	stored := records.WithID(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableLocked(name).put(stored)
	return records.Clone(stored), nil
}

// Select returns copies of the matching records in insertion order,
// or sorted by filter.OrderBy when set.
func (s *RecordStore) Select(ctx context.Context, name string, filter ports.Filter) ([]ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return []ports.Record{}, nil
	}
	out := make([]ports.Record, 0)
	for _, id := range t.order {
		rec := t.rows[id]
		if records.Match(rec, filter) {
			out = append(out, records.Clone(rec))
		}
	}
	records.SortBy(out, filter.OrderBy)
	return out, nil
}

// Delete removes the matching records.
func (s *RecordStore) Delete(ctx context.Context, name string, filter ports.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	kept := t.order[:0]
	for _, id := range t.order {
		if records.Match(t.rows[id], filter) {
			delete(t.rows, id)
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return nil
}

// InTx runs fn against a snapshot of the store and publishes its writes only
// if fn succeeds. fn must use the store it is given, not s.
func (s *RecordStore) InTx(ctx context.Context, fn func(tx ports.RecordStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := &RecordStore{tables: make(map[string]*table, len(s.tables))}
	for name, t := range s.tables {
		snapshot.tables[name] = t.clone()
	}

	if err := fn(snapshot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.tables = snapshot.tables
	return nil
}

// Count returns the number of records in a table.
func (s *RecordStore) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[name]; ok {
		return len(t.rows)
	}
	return 0
}
