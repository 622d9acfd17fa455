package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/diagram-go/internal/snapshot"
	"github.com/inamate/inamate/diagram-go/internal/snapshot/postgres"
)

// Runs against a real server when TEST_DATABASE_URL is set.
func TestPostgresStore_Contract(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := postgres.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	snapshot.RunStoreContract(t, store)
}
