package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subbers/internal/config"
	"github.com/magabrotheeeer/subbers/internal/storage/airtable"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen(t *testing.T) {
	t.Run("airtable", func(t *testing.T) {
		repo, err := Open(context.Background(), config.Storage{
			Driver:         config.StorageAirtable,
			AirtableAPIKey: "key",
			AirtableBaseID: "app123",
		}, newNoopLogger())
		require.NoError(t, err)
		assert.IsType(t, &airtable.Storage{}, repo)
		assert.NoError(t, repo.Close())
	})

	t.Run("airtable without credentials", func(t *testing.T) {
		_, err := Open(context.Background(), config.Storage{Driver: config.StorageAirtable}, newNoopLogger())
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(context.Background(), config.Storage{Driver: "mongo"}, newNoopLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown storage driver "mongo"`)
	})
}
