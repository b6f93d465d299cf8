package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork/internal/testutils"
	"github.com/aretw0/fieldwork/pkg/adapters/redis"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

func TestRecordStore_Contract(t *testing.T) {
	_, client := testutils.SetupRedis(t)
	ports.RunRecordStoreContract(t, redis.NewRecordStore(client))
}

func TestRecordStore_UpsertKeepsPosition(t *testing.T) {
	_, client := testutils.SetupRedis(t)
	store := redis.NewRecordStore(client)
	ctx := context.Background()

	a, err := store.Insert(ctx, ports.TableSections, ports.Record{"survey_id": "s", "title": "A"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, ports.TableSections, ports.Record{"survey_id": "s", "title": "B"})
	require.NoError(t, err)

	_, err = store.Upsert(ctx, ports.TableSections, ports.Record{"id": a.ID(), "survey_id": "s", "title": "A2"})
	require.NoError(t, err)

	found, err := store.Select(ctx, ports.TableSections, ports.Where("survey_id", "s"))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "A2", found[0]["title"])
	assert.Equal(t, "B", found[1]["title"])
}

func TestRecordStore_Prefix(t *testing.T) {
	mr, client := testutils.SetupRedis(t)
	store := redis.NewRecordStore(client, redis.WithPrefix("custom:"))

	rec, err := store.Insert(context.Background(), ports.TableSurveys, ports.Record{"title": "x"})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:rec:surveys:"+rec.ID()))
	assert.True(t, mr.Exists("custom:rec:surveys:index"))
}

func TestRecordStore_ConnectionErrorIsStoreError(t *testing.T) {
	mr, client := testutils.SetupRedis(t)
	store := redis.NewRecordStore(client)
	mr.Close()

	_, err := store.Insert(context.Background(), ports.TableSurveys, ports.Record{"title": "x"})
	require.Error(t, err)

	var se *domain.StoreError
	assert.ErrorAs(t, err, &se)
	assert.NotEmpty(t, domain.NormalizeError(err))
}

func TestDraftStore_Contract(t *testing.T) {
	_, client := testutils.SetupRedis(t)
	ports.RunDraftStoreContract(t, redis.NewDraftStore(client))
}

func TestDraftStore_TTLExpiration(t *testing.T) {
	mr, client := testutils.SetupRedis(t)
	store := redis.NewDraftStore(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "d1", &domain.SurveyDraft{Title: "ttl"}))

	mr.FastForward(2 * time.Second)

	_, err := store.Load(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestLocker_LockUnlock(t *testing.T) {
	mr, client := testutils.SetupRedis(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "draft-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:draft-1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:draft-1"), "Lock key should be removed after unlock")
}

func TestLocker_Contention(t *testing.T) {
	_, client := testutils.SetupRedis(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = locker2.Lock(waitCtx, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	assert.NoError(t, unlock2(ctx))
}
