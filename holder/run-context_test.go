package holder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"Painter/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	calls int
}

func (b *brokenStore) AppendRecord(context.Context, *storage.RunRecord) error {
	b.calls++
	return errors.New("read-only file system")
}

func (b *brokenStore) Close() error { return nil }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFlushWritesOnce(t *testing.T) {
	primary := storage.NewMemoryStorage()
	h := NewRunHolder(storage.RunRecord{RunID: "r1", OriginalPrompt: "a cat"}, discard(), primary)

	h.SetImprovedPrompt("a fluffy cat")
	h.AddImage(storage.ImageEntry{Index: 1, URL: "u1", LocalPath: "p1"})
	h.AddImage(storage.ImageEntry{Index: 2, URL: "u2", DownloadError: "timeout"})

	require.NoError(t, h.Flush(context.Background()))
	require.NoError(t, h.Flush(context.Background()))

	records := primary.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "a fluffy cat", records[0].ImprovedPrompt)
	assert.Len(t, records[0].GeneratedImages, 2)
	assert.GreaterOrEqual(t, records[0].ExecutionTimeSeconds, 0.0)
}

func TestFlushWithoutImagesKeepsEmptyList(t *testing.T) {
	primary := storage.NewMemoryStorage()
	h := NewRunHolder(storage.RunRecord{RunID: "r2"}, discard(), primary)
	h.SetGenerationError("content policy violation")

	require.NoError(t, h.Flush(context.Background()))
	records := primary.Records()
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].GeneratedImages)
	assert.Empty(t, records[0].GeneratedImages)
	assert.Equal(t, "content policy violation", records[0].GenerationError)
}

func TestFlushToleratesMirrorFailure(t *testing.T) {
	primary := storage.NewMemoryStorage()
	mirror := &brokenStore{}
	h := NewRunHolder(storage.RunRecord{RunID: "r3"}, discard(), primary, mirror)

	require.NoError(t, h.Flush(context.Background()))
	assert.Len(t, primary.Records(), 1)
	assert.Equal(t, 1, mirror.calls)
}

func TestFlushReturnsPrimaryFailure(t *testing.T) {
	primary := &brokenStore{}
	mirror := storage.NewMemoryStorage()
	h := NewRunHolder(storage.RunRecord{RunID: "r4"}, discard(), primary, mirror)

	err := h.Flush(context.Background())
	require.EqualError(t, err, "read-only file system")
	require.EqualError(t, h.Flush(context.Background()), "read-only file system")
	assert.Equal(t, 1, primary.calls)
	assert.Len(t, mirror.Records(), 1)
}

func TestRecordIsSnapshot(t *testing.T) {
	h := NewRunHolder(storage.RunRecord{RunID: "r5"}, discard(), storage.NewMemoryStorage())
	h.AddImage(storage.ImageEntry{Index: 1})

	snap := h.Record()
	snap.GeneratedImages[0].Index = 99
	h.SetEnhancementError("timeout")

	assert.Equal(t, 1, h.Record().GeneratedImages[0].Index)
	assert.Empty(t, snap.PromptEnhancementError)
}
