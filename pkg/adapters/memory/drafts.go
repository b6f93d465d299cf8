package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/fieldwork/pkg/domain"
)

// DraftStore implements ports.DraftStore in memory.
// Safe for concurrent use.
type DraftStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewDraftStore creates a new in-memory draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{
		data: make(map[string][]byte),
	}
}

// Save stores an encoded copy, so later edits to draft are not visible until saved again.
func (s *DraftStore) Save(ctx context.Context, draftID string, draft *domain.SurveyDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[draftID] = data
	return nil
}

// Load decodes a fresh copy of the draft.
func (s *DraftStore) Load(ctx context.Context, draftID string) (*domain.SurveyDraft, error) {
	s.mu.RLock()
	data, ok := s.data[draftID]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrDraftNotFound
	}

	var draft domain.SurveyDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

// Delete removes the draft.
func (s *DraftStore) Delete(ctx context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, draftID)
	return nil
}

// List returns stored draft ids.
func (s *DraftStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
