package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/defect-portal/internal/storage"
)

// TestSlotStoreIntegration exercises the slot store against a live Postgres.
func TestSlotStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_STORAGE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORAGE_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := NewSlotStore(ctx, dbURL, time.Hour)
	require.NoError(t, err)
	defer store.Close()

	slot := fmt.Sprintf("itest_%d", time.Now().UnixNano())
	require.NoError(t, store.Set(ctx, slot, storage.KeyCurrentUser, `{"id":"1"}`))
	require.NoError(t, store.Set(ctx, slot, storage.KeyCurrentUser, `{"id":"2"}`))
	require.NoError(t, store.Set(ctx, slot, storage.KeySessionExpiry, "1700000000000"))

	got, err := store.Get(ctx, slot, storage.KeyCurrentUser)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"2"}`, got, "set upserts")

	require.NoError(t, store.Delete(ctx, slot, storage.KeyCurrentUser, storage.KeySessionExpiry))
	_, err = store.Get(ctx, slot, storage.KeySessionExpiry)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Purge(ctx)
	assert.NoError(t, err)
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
