// Package records holds helpers shared by the in-process record store adapters.
package records

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}

// WithID returns a copy of rec that carries an id, generating one if needed.
func WithID(rec ports.Record) ports.Record {
	out := Clone(rec)
	if out.ID() == "" {
		out["id"] = NewID()
	}
	return out
}

// CheckNew fails with domain.ErrDuplicateRecord when an id in recs is
// repeated or already reported by exists.
func CheckNew(recs []ports.Record, exists func(id string) bool) error {
	seen := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		id := rec.ID()
		if _, dup := seen[id]; dup || exists(id) {
			return Duplicate(id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Duplicate returns the store error for an insert that reuses id.
func Duplicate(id string) error {
	return &domain.StoreError{
		Message: fmt.Sprintf("record %s already exists", id),
		Err:     domain.ErrDuplicateRecord,
	}
}

// Clone returns a deep copy of rec, detached from any slices or maps it holds.
func Clone(rec ports.Record) ports.Record {
	out := make(ports.Record, len(rec))
	for k, v := range rec {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return val
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case map[string]any:
		return map[string]any(Clone(ports.Record(val)))
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}
		return out
	default:
		// Structs and pointers are copied through JSON so callers cannot
		// mutate stored data after the fact.
		data, err := json.Marshal(val)
		if err != nil {
			return val
		}
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return val
		}
		return decoded
	}
}

// Match reports whether rec satisfies every equality in filter.
func Match(rec ports.Record, filter ports.Filter) bool {
	for col, want := range filter.Eq {
		if !Equal(rec[col], want) {
			return false
		}
	}
	return true
}

// Equal compares two column values, treating numbers of any type as equal
// when they have the same value.
func Equal(a, b any) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// SortBy orders recs ascending by column. Records missing the column sort first.
func SortBy(recs []ports.Record, column string) {
	if column == "" {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return less(recs[i][column], recs[j][column])
	})
}

func less(a, b any) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa < fb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
