package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork/pkg/adapters/postgres"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// Set FIELDWORK_TEST_POSTGRES_DSN to run against a real database, e.g.
// "host=localhost user=postgres password=postgres dbname=fieldwork_test sslmode=disable".
func TestRecordStore_Contract(t *testing.T) {
	dsn := os.Getenv("FIELDWORK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FIELDWORK_TEST_POSTGRES_DSN not set")
	}

	store, err := postgres.Open(dsn, postgres.PoolConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Migrate(context.Background()))
	ports.RunRecordStoreContract(t, store)
}
