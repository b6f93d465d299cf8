package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork/internal/config"
	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/internal/testutils"
)

const draftYAML = `title: Encuesta de hogares
project_id: p1
sections:
  - id: temp_a
    title: Vivienda
    questions:
      - type: multiple_choice
        text: Tipo de vivienda
        options: [Casa, Apartamento]
  - id: temp_b
    title: Personas
    questions:
      - type: number
        text: ¿Cuántas personas viven aquí?
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func TestReadDraftFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		d, err := readDraftFile(writeFile(t, "censo.yaml", draftYAML))
		require.NoError(t, err)
		assert.Equal(t, "Encuesta de hogares", d.Title)
		require.Len(t, d.Sections, 2)
		assert.Equal(t, []string{"Casa", "Apartamento"}, d.Sections[0].Questions[0].Options)
	})

	t.Run("json", func(t *testing.T) {
		d, err := readDraftFile(writeFile(t, "censo.json", `{"title": "Censo", "sections": []}`))
		require.NoError(t, err)
		assert.Equal(t, "Censo", d.Title)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := readDraftFile(writeFile(t, "censo.txt", "title: x"))
		assert.ErrorContains(t, err, "unsupported draft format")
	})
}

func TestWriteDraftFileRoundTrip(t *testing.T) {
	path := writeFile(t, "censo.yml", draftYAML)
	d, err := readDraftFile(path)
	require.NoError(t, err)

	d.ID = "sv-1"
	require.NoError(t, writeDraftFile(path, d))

	again, err := readDraftFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sv-1", again.ID)
	assert.Equal(t, d.Sections[1].Questions[0].Text, again.Sections[1].Questions[0].Text)
	assert.NoFileExists(t, path+".tmp")
}

func TestDraftIDFromPath(t *testing.T) {
	assert.Equal(t, "censo-2024", draftIDFromPath("/tmp/censo 2024.yaml"))
	assert.Equal(t, "encuesta_v1.2", draftIDFromPath("encuesta_v1.2.json"))
	assert.Equal(t, "draft", draftIDFromPath("/tmp/¿?.yaml"))
}

func TestRunValidate(t *testing.T) {
	t.Run("valid draft", func(t *testing.T) {
		cmd, out := testCommand()
		require.NoError(t, runValidate(cmd, writeFile(t, "ok.yaml", draftYAML), false))
		assert.Contains(t, out.String(), "La encuesta es válida")
	})

	t.Run("invalid draft as json", func(t *testing.T) {
		cmd, out := testCommand()
		err := runValidate(cmd, writeFile(t, "bad.json", `{"title": "", "sections": []}`), true)
		assert.ErrorContains(t, err, "validation errors")
		assert.Contains(t, out.String(), `"valid": false`)
		assert.Contains(t, out.String(), `"field": "title"`)
	})
}

func TestRunSave(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "censo.yaml", draftYAML)

	cmd, out := testCommand()
	require.NoError(t, runSave(cmd, path, "temp_b", "user-1", "", true))
	assert.Contains(t, out.String(), "Guardado exitosamente")

	d, err := readDraftFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "temp_a", d.Sections[0].ID)
	assert.NotEqual(t, "temp_b", d.Sections[1].ID)
	assert.NotEmpty(t, d.Sections[1].Questions[0].ID)
}

func TestRunSaveUnknownSection(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "censo.yaml", draftYAML)

	cmd, _ := testCommand()
	err := runSave(cmd, path, "missing", "", "", true)
	require.Error(t, err)

	d, err := readDraftFile(path)
	require.NoError(t, err)
	assert.Empty(t, d.ID, "a failed save leaves the file untouched")
}

func TestBuildDeps(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewNop()

	t.Run("memory and file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Drafts.Driver = "file"
		cfg.Drafts.Dir = t.TempDir()

		deps, err := buildDeps(ctx, cfg, logger)
		require.NoError(t, err)
		defer deps.Close()
		assert.Nil(t, deps.locker)

		svc := newService(cfg, deps, nil, logger)
		d, err := readDraftFile(writeFile(t, "censo.yaml", draftYAML))
		require.NoError(t, err)
		require.NoError(t, svc.SaveDraft(ctx, "censo", d))

		_, err = os.Stat(filepath.Join(cfg.Drafts.Dir, "censo.json"))
		assert.NoError(t, err)
	})

	t.Run("redis", func(t *testing.T) {
		mr, _ := testutils.SetupRedis(t)
		cfg := config.Default()
		cfg.Store.Driver = "redis"
		cfg.Drafts.Driver = "redis"
		cfg.Store.Redis.Addr = mr.Addr()

		deps, err := buildDeps(ctx, cfg, logger)
		require.NoError(t, err)
		defer deps.Close()
		assert.NotNil(t, deps.locker)

		svc := newService(cfg, deps, nil, logger)
		d, err := readDraftFile(writeFile(t, "censo.yaml", draftYAML))
		require.NoError(t, err)
		require.NoError(t, svc.SaveDraft(ctx, "censo", d))

		res, err := svc.SaveSection(ctx, "censo", "temp_a", "user-1")
		require.NoError(t, err)
		assert.True(t, res.Success)
	})

	t.Run("encrypted drafts", func(t *testing.T) {
		cfg := config.Default()
		cfg.Drafts.Driver = "file"
		cfg.Drafts.Dir = t.TempDir()
		cfg.Drafts.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

		deps, err := buildDeps(ctx, cfg, logger)
		require.NoError(t, err)
		defer deps.Close()

		d, err := readDraftFile(writeFile(t, "censo.yaml", draftYAML))
		require.NoError(t, err)
		require.NoError(t, deps.drafts.Save(ctx, "censo", d))

		raw, err := os.ReadFile(filepath.Join(cfg.Drafts.Dir, "censo.json"))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "Encuesta de hogares")

		loaded, err := deps.drafts.Load(ctx, "censo")
		require.NoError(t, err)
		assert.Equal(t, "Encuesta de hogares", loaded.Title)
	})

	t.Run("bad encryption key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Drafts.EncryptionKey = "c2hvcnQ="

		_, err := buildDeps(ctx, cfg, logger)
		assert.ErrorContains(t, err, "invalid encryption key")
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Driver = "redis"
		cfg.Store.Redis.Addr = "127.0.0.1:1"

		_, err := buildDeps(ctx, cfg, logger)
		assert.ErrorContains(t, err, "failed to connect to redis")
	})
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
