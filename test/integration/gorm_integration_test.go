package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamebook-engine/internal/repository/contract"
	"gamebook-engine/internal/repository/implementation"
	"gamebook-engine/pkg/database"
	"gamebook-engine/pkg/store"
)

func TestGormSectionRepository(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	sqlDB, _ := gormDB.DB()
	require.NoError(t, sqlDB.Ping())

	sections := implementation.NewSectionRepository(gormDB)
	ctx := context.Background()

	t.Run("raw round trip", func(t *testing.T) {
		require.NoError(t, sections.PutRaw(ctx, 9001, store.KindContent, "integration raw text"))

		got, err := sections.GetRaw(ctx, 9001, store.KindContent)
		require.NoError(t, err)
		assert.Equal(t, "integration raw text", got)
	})

	t.Run("artifact upsert", func(t *testing.T) {
		key := store.SectionKey{Section: 9001, Kind: store.KindContent}
		require.NoError(t, sections.PutArtifact(ctx, key, "first"))
		require.NoError(t, sections.PutArtifact(ctx, key, "second"))

		got, err := sections.GetArtifact(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", got)

		exists, err := sections.ArtifactExists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing section", func(t *testing.T) {
		_, err := sections.GetRaw(ctx, 987654, store.KindContent)
		assert.ErrorIs(t, err, contract.ErrNotFound)
	})
}

func TestGormTraceRepository(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)

	traces := implementation.NewTraceRepository(gormDB)
	ctx := context.Background()

	last, err := traces.LastSeq(ctx)
	require.NoError(t, err)

	entry := &store.TraceEntry{Seq: last + 1, Section: 9001, Action: "145", Outcome: "145"}
	require.NoError(t, traces.Append(ctx, entry))

	got, err := traces.Range(ctx, last, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entry.Seq, got[0].Seq)
	assert.Equal(t, "145", got[0].Outcome)
}
