package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/fieldwork/pkg/domain"
)

// DraftStore implements ports.DraftStore using Redis.
type DraftStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// New creates a Redis draft store with its own client.
func New(address, password string, db int, opts ...Option) *DraftStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewDraftStore(rdb, opts...)
}

// NewDraftStore creates a Redis draft store from an existing client.
func NewDraftStore(client *backend.Client, opts ...Option) *DraftStore {
	o := newOptions(opts)
	return &DraftStore{
		client: client,
		prefix: o.prefix + "draft:",
		ttl:    o.ttl,
	}
}

func (s *DraftStore) key(draftID string) string {
	return s.prefix + draftID
}

func (s *DraftStore) indexKey() string {
	return s.prefix + "index"
}

// Save persists the draft to Redis.
func (s *DraftStore) Save(ctx context.Context, draftID string, draft *domain.SurveyDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(draftID), data, s.ttl)

	// Score = expiry time, so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: draftID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save draft to redis: %w", err)
	}
	return nil
}

// Load retrieves the draft from Redis.
func (s *DraftStore) Load(ctx context.Context, draftID string) (*domain.SurveyDraft, error) {
	val, err := s.client.Get(ctx, s.key(draftID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft from redis: %w", err)
	}

	var draft domain.SurveyDraft
	if err := json.Unmarshal([]byte(val), &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

// Delete removes the draft.
func (s *DraftStore) Delete(ctx context.Context, draftID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(draftID))
	pipe.ZRem(ctx, s.indexKey(), draftID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored draft ids, pruning expired entries from the index first.
func (s *DraftStore) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired drafts: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *DraftStore) Close() error {
	return s.client.Close()
}
