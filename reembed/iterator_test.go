package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/aikernel/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *badger.VectorStore {
	t.Helper()
	store, err := badger.NewMemoryVectorStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedTexts(t *testing.T, store *badger.VectorStore, model string, n int) []string {
	t.Helper()
	texts := make([]string, n)
	for i := range n {
		texts[i] = fmt.Sprintf("text %d", i)
		require.NoError(t, store.PutVector(context.Background(), model, texts[i], []float32{1, 0}))
	}
	return texts
}

func TestTextIterator_Batches(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	want := seedTexts(t, store, "old", 7)

	it := NewTextIterator(store, "old", 3)
	texts, err := it.Texts(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, texts)

	var sizes []int
	var seen []string
	err = it.ForEach(ctx, texts, func(batch []string) error {
		sizes = append(sizes, len(batch))
		seen = append(seen, batch...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Equal(t, texts, seen)
}

func TestTextIterator_DefaultBatchSize(t *testing.T) {
	it := NewTextIterator(nil, "m", 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

func TestTextIterator_StopsOnError(t *testing.T) {
	it := NewTextIterator(nil, "m", 2)
	boom := errors.New("boom")
	calls := 0
	err := it.ForEach(context.Background(), []string{"a", "b", "c", "d"}, func([]string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestTextIterator_Cancelled(t *testing.T) {
	it := NewTextIterator(nil, "m", 1)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := it.ForEach(ctx, []string{"a", "b", "c"}, func([]string) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
