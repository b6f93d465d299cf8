package ports

import (
	"context"

	"github.com/aretw0/fieldwork/pkg/domain"
)

// Table names used by the save pipeline.
const (
	TableSurveys   = "surveys"
	TableSections  = "survey_sections"
	TableQuestions = "questions"
)

// Record is a single row keyed by column name. The "id" column is the primary key.
type Record map[string]any

// ID returns the record's id column as a string, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Filter selects records by column equality, optionally ordered by one column.
type Filter struct {
	Eq      map[string]any
	OrderBy string
}

// Where returns a Filter matching column == value.
func Where(column string, value any) Filter {
	return Filter{Eq: map[string]any{column: value}}
}

// And adds another equality condition.
func (f Filter) And(column string, value any) Filter {
	eq := make(map[string]any, len(f.Eq)+1)
	for k, v := range f.Eq {
		eq[k] = v
	}
	eq[column] = value
	f.Eq = eq
	return f
}

// Ordered sets the ascending sort column.
func (f Filter) Ordered(column string) Filter {
	f.OrderBy = column
	return f
}

// RecordStore is the generic record store the save pipeline persists into.
// Implementations assign an id on Insert when the record carries none.
type RecordStore interface {
	// Insert creates a record and returns it with its id.
	Insert(ctx context.Context, table string, rec Record) (Record, error)

	// InsertMany creates several records in one call.
	InsertMany(ctx context.Context, table string, recs []Record) ([]Record, error)

	// Upsert inserts the record, or replaces the one with the same id.
	Upsert(ctx context.Context, table string, rec Record) (Record, error)

	// Select returns the records matching filter.
	Select(ctx context.Context, table string, filter Filter) ([]Record, error)

	// Delete removes the records matching filter. Deleting nothing is not an error.
	Delete(ctx context.Context, table string, filter Filter) error
}

// Transactional is implemented by stores that can run several calls atomically.
// If fn returns an error, none of its writes are visible.
type Transactional interface {
	InTx(ctx context.Context, fn func(tx RecordStore) error) error
}

// DraftStore persists in-progress drafts keyed by draft id.
type DraftStore interface {
	// Save persists the draft.
	Save(ctx context.Context, draftID string, draft *domain.SurveyDraft) error

	// Load returns domain.ErrDraftNotFound if the draft does not exist.
	Load(ctx context.Context, draftID string) (*domain.SurveyDraft, error)

	// Delete removes the draft.
	Delete(ctx context.Context, draftID string) error

	// List returns the ids of stored drafts.
	List(ctx context.Context) ([]string, error)
}
