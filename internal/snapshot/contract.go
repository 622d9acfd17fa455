package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract checks the behavior every Store implementation must share.
func RunStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	docID := "contract-doc-" + time.Now().Format("20060102150405.000000000")

	t.Run("load missing", func(t *testing.T) {
		_, _, err := store.Load(ctx, docID+"-missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		v, err := store.Save(ctx, docID, []byte(`{"name":"first"}`))
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		data, version, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"first"}`, string(data))
		assert.Equal(t, int64(1), version)
	})

	t.Run("latest wins", func(t *testing.T) {
		v, err := store.Save(ctx, docID, []byte(`{"name":"second"}`))
		require.NoError(t, err)
		assert.Equal(t, int64(2), v)

		data, version, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"second"}`, string(data))
		assert.Equal(t, int64(2), version)
	})

	t.Run("documents are independent", func(t *testing.T) {
		other := docID + "-other"
		v, err := store.Save(ctx, other, []byte(`{"name":"other"}`))
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)

		data, _, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"second"}`, string(data))
	})
}
