package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aretw0/fieldwork/pkg/domain"
)

// draftIDPattern keeps draft ids usable as file names.
var draftIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// DraftStore implements ports.DraftStore on the local filesystem,
// one JSON file per draft. It is the offline authoring store used by the CLI.
type DraftStore struct {
	BasePath string
}

// NewDraftStore creates a DraftStore rooted at basePath.
// If basePath is empty, it defaults to ".fieldwork/drafts".
func NewDraftStore(basePath string) *DraftStore {
	if basePath == "" {
		basePath = filepath.Join(".fieldwork", "drafts")
	}
	return &DraftStore{BasePath: basePath}
}

func (s *DraftStore) path(draftID string) (string, error) {
	if draftID == "" {
		return "", fmt.Errorf("draftID cannot be empty")
	}
	if !draftIDPattern.MatchString(draftID) || strings.Contains(draftID, "..") {
		return "", fmt.Errorf("invalid draftID %q", draftID)
	}
	return filepath.Join(s.BasePath, draftID+".json"), nil
}

// Save writes the draft atomically: temp file, fsync, rename.
func (s *DraftStore) Save(ctx context.Context, draftID string, draft *domain.SurveyDraft) error {
	destPath, err := s.path(draftID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure draft directory: %w", err)
	}

	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+draftID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move draft file into place: %w", err)
	}
	return nil
}

// Load reads the draft file.
func (s *DraftStore) Load(ctx context.Context, draftID string) (*domain.SurveyDraft, error) {
	path, err := s.path(draftID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to read draft file: %w", err)
	}

	var draft domain.SurveyDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

// Delete removes the draft file. Deleting a missing draft is not an error.
func (s *DraftStore) Delete(ctx context.Context, draftID string) error {
	path, err := s.path(draftID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete draft file: %w", err)
	}
	return nil
}

// List returns the ids of every stored draft.
func (s *DraftStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
