package scancache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/storage/archive"
)

func newLocalBlob(t *testing.T) (*Blob, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := archive.NewLocalFS(dir)
	require.NoError(t, err)
	return NewBlob(fs, "localfs"), dir
}

func TestBlob_AppendAndLoad(t *testing.T) {
	b, dir := newLocalBlob(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, b.Append(ctx, scanResult(fmt.Sprintf("scan-%d", i), base.AddDate(0, 0, i)), 3))
	}

	loaded, err := b.Load(ctx, 10)
	require.NoError(t, err)
	require.Len(t, loaded, 3, "history pruned to keep")
	assert.Equal(t, "scan-3", loaded[0].ID)
	assert.Equal(t, "scan-1", loaded[2].ID)
	assert.Equal(t, "AAPL", loaded[0].Results[0].Symbol)

	_, err = os.Stat(filepath.Join(dir, latestFile))
	assert.NoError(t, err, "latest.json mirrors the newest scan")

	limited, err := b.Load(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "scan-3", limited[0].ID)
}

func TestBlob_LoadEmpty(t *testing.T) {
	b, _ := newLocalBlob(t)
	loaded, err := b.Load(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestBlob_SkipsCorruptDocuments(t *testing.T) {
	b, dir := newLocalBlob(t)
	ctx := context.Background()
	require.NoError(t, b.Append(ctx, scanResult("good", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), 5))
	require.NoError(t, os.WriteFile(filepath.Join(dir, historyDir, "20990101T000000.000000000Z-bad.json"), []byte("{"), 0644))

	loaded, err := b.Load(ctx, 10)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "good", loaded[0].ID)
}

func TestCache_RestoreFromBlob(t *testing.T) {
	b, _ := newLocalBlob(t)
	ctx := context.Background()

	first := New(b, 5)
	require.NoError(t, first.Store(ctx, scanResult("before-restart", time.Now())))

	second := New(b, 5)
	require.NoError(t, second.Restore(ctx))
	latest, ok := second.Latest()
	require.True(t, ok)
	assert.Equal(t, "before-restart", latest.ID)
}
