package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRecordStoreContract runs a suite of tests to verify that a RecordStore
// implementation adheres to the interface contract.
func RunRecordStoreContract(t *testing.T, store RecordStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405.000000000")
	table := TableQuestions

	t.Run("Insert Assigns ID", func(t *testing.T) {
		rec, err := store.Insert(ctx, TableSurveys, Record{"title": "Contract " + suffix, "status": "draft"})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID())

		found, err := store.Select(ctx, TableSurveys, Where("id", rec.ID()))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Contract "+suffix, found[0]["title"])
	})

	t.Run("Insert With Existing ID Fails", func(t *testing.T) {
		rec, err := store.Insert(ctx, TableSurveys, Record{"title": "Original " + suffix, "status": "draft"})
		require.NoError(t, err)

		_, err = store.Insert(ctx, TableSurveys, Record{"id": rec.ID(), "title": "Overwrite " + suffix, "status": "draft"})
		assert.ErrorIs(t, err, domain.ErrDuplicateRecord)

		found, err := store.Select(ctx, TableSurveys, Where("id", rec.ID()))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Original "+suffix, found[0]["title"])
	})

	t.Run("InsertMany With Repeated ID Writes Nothing", func(t *testing.T) {
		sectionID := "dup-" + suffix
		id := "dq-" + time.Now().Format("150405.000000")
		_, err := store.InsertMany(ctx, table, []Record{
			{"id": id, "section_id": sectionID, "text": "first", "order_num": 0},
			{"id": id, "section_id": sectionID, "text": "copy", "order_num": 1},
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateRecord)

		found, err := store.Select(ctx, table, Where("section_id", sectionID))
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("Upsert Replaces By ID", func(t *testing.T) {
		rec, err := store.Upsert(ctx, TableSections, Record{"survey_id": "survey-" + suffix, "title": "First", "order_num": 0})
		require.NoError(t, err)
		id := rec.ID()
		require.NotEmpty(t, id)

		_, err = store.Upsert(ctx, TableSections, Record{"id": id, "survey_id": "survey-" + suffix, "title": "Renamed", "order_num": 0})
		require.NoError(t, err)

		found, err := store.Select(ctx, TableSections, Where("survey_id", "survey-"+suffix))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Renamed", found[0]["title"])
	})

	t.Run("InsertMany Select Ordered And Delete", func(t *testing.T) {
		sectionID := "section-" + suffix
		recs, err := store.InsertMany(ctx, table, []Record{
			{"section_id": sectionID, "text": "second", "order_num": 1},
			{"section_id": sectionID, "text": "first", "order_num": 0},
			{"section_id": "other-" + suffix, "text": "other", "order_num": 0},
		})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		for _, r := range recs {
			assert.NotEmpty(t, r.ID())
		}

		found, err := store.Select(ctx, table, Where("section_id", sectionID).Ordered("order_num"))
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "first", found[0]["text"])
		assert.Equal(t, "second", found[1]["text"])

		require.NoError(t, store.Delete(ctx, table, Where("section_id", sectionID)))

		found, err = store.Select(ctx, table, Where("section_id", sectionID))
		require.NoError(t, err)
		assert.Empty(t, found)

		others, err := store.Select(ctx, table, Where("section_id", "other-"+suffix))
		require.NoError(t, err)
		assert.Len(t, others, 1, "Delete must only remove matching records")
	})

	t.Run("Delete Nothing", func(t *testing.T) {
		err := store.Delete(ctx, table, Where("section_id", "missing-"+suffix))
		assert.NoError(t, err)
	})

	if tx, ok := store.(Transactional); ok {
		t.Run("Transaction Rollback", func(t *testing.T) {
			sectionID := "tx-" + suffix
			boom := errors.New("boom")
			err := tx.InTx(ctx, func(s RecordStore) error {
				if _, err := s.Insert(ctx, table, Record{"section_id": sectionID, "text": "ghost", "order_num": 0}); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			found, err := store.Select(ctx, table, Where("section_id", sectionID))
			require.NoError(t, err)
			assert.Empty(t, found, "writes inside a failed transaction must not be visible")
		})
	}
}

// RunDraftStoreContract verifies a DraftStore implementation.
func RunDraftStoreContract(t *testing.T, store DraftStore) {
	ctx := context.Background()
	draftID := "contract-draft-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		start := "2024-01-01"
		draft := &domain.SurveyDraft{
			Title:     "Contract",
			StartDate: &start,
			Sections: []domain.Section{{
				ID:    "s1",
				Title: "Intro",
				Questions: []domain.Question{
					{ID: "q1", Type: domain.QuestionDropdown, Text: "Pick", Options: []string{"a", "b"}},
				},
			}},
		}

		require.NoError(t, store.Save(ctx, draftID, draft))

		loaded, err := store.Load(ctx, draftID)
		require.NoError(t, err)
		assert.Equal(t, "Contract", loaded.Title)
		require.NotNil(t, loaded.StartDate)
		assert.Equal(t, start, *loaded.StartDate)
		require.Len(t, loaded.Sections, 1)
		assert.Equal(t, []string{"a", "b"}, loaded.Sections[0].Questions[0].Options)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+draftID)
		assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := draftID + "-1"
		id2 := draftID + "-2"
		_ = store.Save(ctx, id1, &domain.SurveyDraft{Title: "one"})
		_ = store.Save(ctx, id2, &domain.SurveyDraft{Title: "two"})
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, draftID, &domain.SurveyDraft{Title: "gone"}))
		require.NoError(t, store.Delete(ctx, draftID))

		_, err := store.Load(ctx, draftID)
		assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	})
}
