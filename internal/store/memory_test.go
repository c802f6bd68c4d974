package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepDoc struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Steps  int    `json:"steps"`
}

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got stepDoc
	ok, err := m.Get(ctx, DailySteps, "u1_2025-02-01", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, DailySteps, "u1_2025-02-01", stepDoc{"u1", "2025-02-01", 10}))
	ok, err = m.Get(ctx, DailySteps, "u1_2025-02-01", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10, got.Steps)

	require.NoError(t, m.Delete(ctx, DailySteps, "u1_2025-02-01"))
	ok, err = m.Get(ctx, DailySteps, "u1_2025-02-01", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCreateIsInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.Create(ctx, IdempotencyKeys, "k1_u1", map[string]string{"date": "2025-02-01"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.Create(ctx, IdempotencyKeys, "k1_u1", map[string]string{"date": "2025-02-02"})
	require.NoError(t, err)
	assert.False(t, created)

	var got map[string]string
	_, err = m.Get(ctx, IdempotencyKeys, "k1_u1", &got)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", got["date"])
}

func TestMemoryMerge(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, Users, "u1", map[string]interface{}{"email": "a@x", "role": "MEMBER"}))
	require.NoError(t, m.Merge(ctx, Users, "u1", map[string]interface{}{"role": "ADMIN"}))

	var got map[string]string
	_, err := m.Get(ctx, Users, "u1", &got)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email": "a@x", "role": "ADMIN"}, got)
}

func TestMemoryUpdateSerializesPerKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Update(ctx, DailySteps, "counter", func(current []byte, exists bool) (interface{}, error) {
				var d stepDoc
				if exists {
					if err := json.Unmarshal(current, &d); err != nil {
						return nil, err
					}
				}
				d.Steps++
				return d, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var got stepDoc
	_, err := m.Get(ctx, DailySteps, "counter", &got)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Steps)
}

func TestMemoryUpdateSkipWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	err := m.Update(ctx, DailySteps, "k", func([]byte, bool) (interface{}, error) {
		return nil, ErrSkipWrite
	})
	require.NoError(t, err)
	docs, err := m.Query(ctx, DailySteps)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryQueryFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, DailySteps, "u1_2025-02-01", stepDoc{"u1", "2025-02-01", 100}))
	require.NoError(t, m.Set(ctx, DailySteps, "u1_2025-02-02", stepDoc{"u1", "2025-02-02", 200}))
	require.NoError(t, m.Set(ctx, DailySteps, "u2_2025-02-02", stepDoc{"u2", "2025-02-02", 300}))
	require.NoError(t, m.Set(ctx, TeamMembers, "t1", map[string]interface{}{"members": []string{"u1", "u2"}}))

	docs, err := m.Query(ctx, DailySteps, Eq("date", "2025-02-02"))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = m.Query(ctx, DailySteps, Eq("user_id", "u1"), Gte("date", "2025-02-02"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "u1_2025-02-02", docs[0].Key)

	docs, err = m.Query(ctx, DailySteps, Lte("steps", 200))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = m.Query(ctx, TeamMembers, Contains("members", "u2"))
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = m.Query(ctx, TeamMembers, Contains("members", "u9"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}
