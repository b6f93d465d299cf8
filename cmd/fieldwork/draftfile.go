package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/fieldwork/pkg/domain"
)

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// readDraftFile decodes a draft from a .yaml, .yml or .json file.
func readDraftFile(path string) (*domain.SurveyDraft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	var d domain.SurveyDraft
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &d)
	case ".json":
		err = json.Unmarshal(data, &d)
	default:
		return nil, fmt.Errorf("unsupported draft format %q (use .yaml, .yml or .json)", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}
	return &d, nil
}

// writeDraftFile encodes d back into path, keeping its format.
func writeDraftFile(path string, d *domain.SurveyDraft) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(d)
	default:
		data, err = json.MarshalIndent(d, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return os.Rename(tmp, path)
}

// draftIDFromPath derives a draft store id from the file name.
func draftIDFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := strings.Trim(unsafeIDChars.ReplaceAllString(base, "-"), "-.")
	if id == "" {
		return "draft"
	}
	return id
}
