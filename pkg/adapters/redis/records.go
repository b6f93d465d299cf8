package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/fieldwork/internal/records"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// RecordStore implements ports.RecordStore using Redis.
// Each record is a JSON string; each table keeps a sorted-set index whose
// score is the insertion sequence.
type RecordStore struct {
	client *backend.Client
	prefix string
}

// NewRecordStore creates a Redis record store from an existing client.
func NewRecordStore(client *backend.Client, opts ...Option) *RecordStore {
	o := newOptions(opts)
	return &RecordStore{client: client, prefix: o.prefix}
}

func (s *RecordStore) key(table, id string) string {
	return s.prefix + "rec:" + table + ":" + id
}

func (s *RecordStore) indexKey(table string) string {
	return s.prefix + "rec:" + table + ":index"
}

func (s *RecordStore) seqKey() string {
	return s.prefix + "rec:seq"
}

// storeError maps a redis failure to the domain error shape.
func storeError(op string, err error) error {
	return &domain.StoreError{
		Message: fmt.Sprintf("redis %s failed: %v", op, err),
		Err:     err,
	}
}

func (s *RecordStore) write(ctx context.Context, table string, recs []ports.Record, replace bool) ([]ports.Record, error) {
	if len(recs) == 0 {
		return []ports.Record{}, nil
	}

	out := make([]ports.Record, 0, len(recs))
	payloads := make([][]byte, 0, len(recs))
	keys := make([]string, 0, len(recs))
	for _, rec := range recs {
		stored := records.WithID(rec)
		data, err := json.Marshal(stored)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record: %w", err)
		}
		out = append(out, stored)
		payloads = append(payloads, data)
		keys = append(keys, s.key(table, stored.ID()))
	}

	last, err := s.client.IncrBy(ctx, s.seqKey(), int64(len(recs))).Result()
	if err != nil {
		return nil, storeError("incr", err)
	}
	first := last - int64(len(recs)) + 1

	queue := func(pipe backend.Pipeliner) error {
		for i, rec := range out {
			pipe.Set(ctx, keys[i], payloads[i], 0)
			z := backend.Z{Score: float64(first + int64(i)), Member: rec.ID()}
			if replace {
				pipe.ZAddNX(ctx, s.indexKey(table), z)
			} else {
				pipe.ZAdd(ctx, s.indexKey(table), z)
			}
		}
		return nil
	}

	if replace {
		if _, err := s.client.TxPipelined(ctx, queue); err != nil {
			return nil, storeError("write", err)
		}
	} else {
		// Inserts never overwrite: the keys are watched so a record written
		// between the existence check and EXEC aborts the transaction.
		err := s.client.Watch(ctx, func(tx *backend.Tx) error {
			checks := make([]*backend.IntCmd, len(keys))
			if _, err := tx.Pipelined(ctx, func(pipe backend.Pipeliner) error {
				for i, k := range keys {
					checks[i] = pipe.Exists(ctx, k)
				}
				return nil
			}); err != nil {
				return storeError("exists", err)
			}
			stored := make(map[string]bool, len(keys))
			for i, rec := range out {
				stored[rec.ID()] = checks[i].Val() > 0
			}
			if err := records.CheckNew(out, func(id string) bool { return stored[id] }); err != nil {
				return err
			}
			if _, err := tx.TxPipelined(ctx, queue); err != nil {
				if errors.Is(err, backend.TxFailedErr) {
					return records.Duplicate(out[0].ID())
				}
				return storeError("write", err)
			}
			return nil
		}, keys...)
		if err != nil {
			return nil, err
		}
	}

	for i := range out {
		out[i] = decodeRecord(payloads[i], out[i])
	}
	return out, nil
}

// decodeRecord returns the JSON view of a record, as Select would return it.
func decodeRecord(data []byte, fallback ports.Record) ports.Record {
	var rec ports.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fallback
	}
	return rec
}

// Insert stores rec, assigning an id if it has none. A record whose id is
// already stored is rejected with domain.ErrDuplicateRecord.
func (s *RecordStore) Insert(ctx context.Context, table string, rec ports.Record) (ports.Record, error) {
	out, err := s.write(ctx, table, []ports.Record{rec}, false)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// InsertMany stores every record in one transaction, or none of them when
// any id is already stored or repeated within recs.
func (s *RecordStore) InsertMany(ctx context.Context, table string, recs []ports.Record) ([]ports.Record, error) {
	return s.write(ctx, table, recs, false)
}

// Upsert replaces the record with the same id, keeping its original position.
func (s *RecordStore) Upsert(ctx context.Context, table string, rec ports.Record) (ports.Record, error) {
	out, err := s.write(ctx, table, []ports.Record{rec}, true)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *RecordStore) scan(ctx context.Context, table string, filter ports.Filter) ([]ports.Record, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(table), 0, -1).Result()
	if err != nil {
		return nil, storeError("zrange", err)
	}
	if len(ids) == 0 {
		return []ports.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(table, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storeError("mget", err)
	}

	out := make([]ports.Record, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec ports.Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		if records.Match(rec, filter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Select returns the matching records.
func (s *RecordStore) Select(ctx context.Context, table string, filter ports.Filter) ([]ports.Record, error) {
	out, err := s.scan(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	records.SortBy(out, filter.OrderBy)
	return out, nil
}

// Delete removes the matching records.
func (s *RecordStore) Delete(ctx context.Context, table string, filter ports.Filter) error {
	matches, err := s.scan(ctx, table, filter)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, rec := range matches {
		pipe.Del(ctx, s.key(table, rec.ID()))
		pipe.ZRem(ctx, s.indexKey(table), rec.ID())
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
		return storeError("delete", err)
	}
	return nil
}
