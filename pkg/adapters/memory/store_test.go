package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/ports"
)

func TestRecordStore_Contract(t *testing.T) {
	ports.RunRecordStoreContract(t, memory.NewRecordStore())
}

func TestDraftStore_Contract(t *testing.T) {
	ports.RunDraftStoreContract(t, memory.NewDraftStore())
}

func TestRecordStore_Isolation(t *testing.T) {
	store := memory.NewRecordStore()
	ctx := context.Background()

	opts := []string{"a"}
	rec, err := store.Insert(ctx, ports.TableQuestions, ports.Record{"options": opts})
	require.NoError(t, err)

	opts[0] = "mutated"
	rec["options"] = []string{"also mutated"}

	found, err := store.Select(ctx, ports.TableQuestions, ports.Where("id", rec.ID()))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"a"}, found[0]["options"])
}

func TestRecordStore_TransactionCommit(t *testing.T) {
	store := memory.NewRecordStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, ports.TableQuestions, ports.Record{"section_id": "s1", "text": "old"})
	require.NoError(t, err)

	err = store.InTx(ctx, func(tx ports.RecordStore) error {
		if err := tx.Delete(ctx, ports.TableQuestions, ports.Where("section_id", "s1")); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, ports.TableQuestions, ports.Record{"section_id": "s1", "text": "new"})
		return err
	})
	require.NoError(t, err)

	found, err := store.Select(ctx, ports.TableQuestions, ports.Where("section_id", "s1"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "new", found[0]["text"])
}

func TestRecordStore_TransactionRollbackKeepsOldRows(t *testing.T) {
	store := memory.NewRecordStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, ports.TableQuestions, ports.Record{"section_id": "s1", "text": "old"})
	require.NoError(t, err)

	err = store.InTx(ctx, func(tx ports.RecordStore) error {
		if err := tx.Delete(ctx, ports.TableQuestions, ports.Where("section_id", "s1")); err != nil {
			return err
		}
		return errors.New("insert failed")
	})
	require.Error(t, err)

	assert.Equal(t, 1, store.Count(ports.TableQuestions))
}
