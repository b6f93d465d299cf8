package draft

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewDraftStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("draft-%d", i)
		require.NoError(t, mgr.Save(ctx, id, &domain.SurveyDraft{Title: id}))
		require.NoError(t, mgr.Delete(ctx, id))
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	assert.Empty(t, mgr.locks, "lock entries must be released once unused")
}
