package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/aikernel/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(batch, interval int) *Config {
	return &Config{
		BatchSize:      batch,
		ReportInterval: interval,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
		Normalize:      true,
	}
}

func TestReembedder_Run(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	texts := seedTexts(t, store, "old", 10)

	var buf bytes.Buffer
	n, err := NewReembedder(store, mock.NewMockEmbedder(), testConfig(3, 3), &buf).Run(ctx, "old", "new")
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	count, err := store.CountVectors(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	for _, text := range texts {
		vec, err := store.GetVector(ctx, "new", text)
		require.NoError(t, err)
		assert.Len(t, vec, 384)
		assert.InDelta(t, 1.0, magnitude(vec), 1e-4, "vector should be normalized")
	}

	// Source model is left intact
	count, err = store.CountVectors(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	assert.Contains(t, buf.String(), "10/10")
	assert.Contains(t, buf.String(), "Reembedding complete")
}

func TestReembedder_InPlace(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seedTexts(t, store, "m", 4)

	n, err := NewReembedder(store, fixedEmbedder(), testConfig(2, 2), nil).Run(ctx, "m", "m")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	count, err := store.CountVectors(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	vec, err := store.GetVector(ctx, "m", "text 0")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1.0 / 3, 2.0 / 3, 2.0 / 3}, vec, 1e-6)
}

func TestReembedder_EmptySource(t *testing.T) {
	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()
	n, err := NewReembedder(setupTestStore(t), embedder, nil, &buf).Run(context.Background(), "old", "new")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), "No texts cached")
	assert.Zero(t, embedder.CallCount())
}

func TestReembedder_ModelRequired(t *testing.T) {
	r := NewReembedder(setupTestStore(t), mock.NewMockEmbedder(), nil, nil)
	_, err := r.Run(context.Background(), "", "new")
	assert.ErrorIs(t, err, ErrModelRequired)
	_, err = r.Run(context.Background(), "old", "")
	assert.ErrorIs(t, err, ErrModelRequired)
}

func TestReembedder_EmbeddingFailure(t *testing.T) {
	store := setupTestStore(t)
	seedTexts(t, store, "old", 3)
	embedder := mock.NewMockEmbedder().WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("persistent error")
	})

	n, err := NewReembedder(store, embedder, testConfig(1, 1), nil).Run(context.Background(), "old", "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent error")
	assert.Zero(t, n)
}

func TestReembedder_ProgressTracking(t *testing.T) {
	store := setupTestStore(t)
	seedTexts(t, store, "old", 25)

	var buf bytes.Buffer
	var snapshots []Progress
	config := testConfig(5, 10)
	config.OnProgress = func(p Progress) { snapshots = append(snapshots, p) }
	_, err := NewReembedder(store, mock.NewMockEmbedder(), config, &buf).Run(context.Background(), "old", "new")
	require.NoError(t, err)

	require.Len(t, snapshots, 5)
	for i, p := range snapshots {
		assert.Equal(t, i+1, p.Batch)
		assert.Equal(t, 5, p.Batches)
		assert.Equal(t, (i+1)*5, p.Texts)
		assert.Equal(t, "old", p.From)
		assert.Equal(t, "new", p.To)
	}

	output := buf.String()
	assert.Contains(t, output, "old -> new: batch 5/5, 25/25 texts")
	assert.Contains(t, output, "batch size: 5")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Greater(t, config.BatchSize, 0)
	assert.Greater(t, config.ReportInterval, 0)
	assert.Greater(t, config.MaxRetries, 0)
	assert.Greater(t, config.RetryDelay, time.Duration(0))
	assert.True(t, config.Normalize)
}
