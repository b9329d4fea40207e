package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/migrations"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("share"),
		tcpostgres.WithUsername("share"),
		tcpostgres.WithPassword("share"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.Up(ctx, pool))
	return pool
}

func TestDB_GetVideo(t *testing.T) {
	// Arrange
	pool := newPool(t)
	ctx := context.Background()
	_, err := pool.Exec(ctx,
		`INSERT INTO share_videos (id, title, director, release_year) VALUES ($1, $2, $3, $4)`,
		"vid_42", "The Long Night", "A. Director", "2024")
	require.NoError(t, err)
	repo := NewDB(pool, instrument.NewNoop())

	// Act
	got, err := repo.GetVideo(ctx, "vid_42")
	_, errMissing := repo.GetVideo(ctx, "missing")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "vid_42", got.ID)
	assert.Equal(t, "The Long Night", got.Title)
	assert.Equal(t, "A. Director", got.Director)
	assert.Equal(t, "2024", got.ReleaseYear)
	assert.Empty(t, got.Description)
	assert.ErrorIs(t, errMissing, goerror.ErrNotFound)
}
