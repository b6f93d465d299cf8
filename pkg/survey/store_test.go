package survey_test

import (
	"context"
	"sync"

	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

type op struct {
	Name   string
	Table  string
	Filter ports.Filter
	Count  int
}

// recordingStore logs every call before delegating to an in-memory store.
// It is not transactional, so the saver takes the plain delete+insert path.
type recordingStore struct {
	mem  *memory.RecordStore
	fail map[string]error

	mu  sync.Mutex
	ops []op
}

func newRecordingStore() *recordingStore {
	return &recordingStore{mem: memory.NewRecordStore(), fail: map[string]error{}}
}

func (s *recordingStore) log(name, table string, filter ports.Filter, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op{Name: name, Table: table, Filter: filter, Count: count})
	return s.fail[name+":"+table]
}

func (s *recordingStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

func (s *recordingStore) calls(name, table string) []op {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []op
	for _, o := range s.ops {
		if o.Name == name && o.Table == table {
			out = append(out, o)
		}
	}
	return out
}

func (s *recordingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.ops {
		if o.Name != "select" {
			n++
		}
	}
	return n
}

func (s *recordingStore) Insert(ctx context.Context, table string, rec ports.Record) (ports.Record, error) {
	if err := s.log("insert", table, ports.Filter{}, 1); err != nil {
		return nil, err
	}
	return s.mem.Insert(ctx, table, rec)
}

func (s *recordingStore) InsertMany(ctx context.Context, table string, recs []ports.Record) ([]ports.Record, error) {
	if err := s.log("insert_many", table, ports.Filter{}, len(recs)); err != nil {
		return nil, err
	}
	return s.mem.InsertMany(ctx, table, recs)
}

func (s *recordingStore) Upsert(ctx context.Context, table string, rec ports.Record) (ports.Record, error) {
	if err := s.log("upsert", table, ports.Filter{}, 1); err != nil {
		return nil, err
	}
	return s.mem.Upsert(ctx, table, rec)
}

func (s *recordingStore) Select(ctx context.Context, table string, filter ports.Filter) ([]ports.Record, error) {
	if err := s.log("select", table, filter, 0); err != nil {
		return nil, err
	}
	return s.mem.Select(ctx, table, filter)
}

func (s *recordingStore) Delete(ctx context.Context, table string, filter ports.Filter) error {
	if err := s.log("delete", table, filter, 0); err != nil {
		return err
	}
	return s.mem.Delete(ctx, table, filter)
}

// failingInsertTx is a transactional store whose question inserts fail inside transactions.
type failingInsertTx struct {
	*memory.RecordStore
}

func (s failingInsertTx) InTx(ctx context.Context, fn func(tx ports.RecordStore) error) error {
	return s.RecordStore.InTx(ctx, func(tx ports.RecordStore) error {
		return fn(failInsertMany{tx})
	})
}

type failInsertMany struct {
	ports.RecordStore
}

func (failInsertMany) InsertMany(ctx context.Context, table string, recs []ports.Record) ([]ports.Record, error) {
	return nil, &domain.StoreError{Message: "connection reset"}
}

func multipleChoice(text string, options ...string) domain.Question {
	return domain.Question{Type: domain.QuestionMultipleChoice, Text: text, Options: options, Required: true}
}

func textQuestion(text string) domain.Question {
	return domain.Question{Type: domain.QuestionText, Text: text}
}
