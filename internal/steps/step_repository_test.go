package steps

import (
	"context"
	"testing"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkersDoNotCollideAcrossUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository(store.NewMemory())
	now := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	// Both pairs flatten to "a_b_c".
	used, err := repo.CheckAndMark(ctx, "a_b", "c", "2025-02-09", now)
	require.NoError(t, err)
	assert.False(t, used)

	used, err = repo.CheckAndMark(ctx, "a", "b_c", "2025-02-09", now)
	require.NoError(t, err)
	assert.False(t, used)

	for _, pair := range [][2]string{{"a_b", "c"}, {"a", "b_c"}} {
		used, err = repo.CheckAndMark(ctx, pair[0], pair[1], "2025-02-09", now)
		require.NoError(t, err)
		assert.True(t, used, "replay of %v", pair)
	}
}

func TestReleaseFreesOnlyItsOwnMarker(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository(store.NewMemory())
	now := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)

	_, err := repo.CheckAndMark(ctx, "a_b", "c", "2025-02-09", now)
	require.NoError(t, err)
	_, err = repo.CheckAndMark(ctx, "a", "b_c", "2025-02-09", now)
	require.NoError(t, err)

	require.NoError(t, repo.Release(ctx, "a", "b_c"))

	used, err := repo.CheckAndMark(ctx, "a_b", "c", "2025-02-09", now)
	require.NoError(t, err)
	assert.True(t, used)

	used, err = repo.CheckAndMark(ctx, "a", "b_c", "2025-02-09", now)
	require.NoError(t, err)
	assert.False(t, used)
}
