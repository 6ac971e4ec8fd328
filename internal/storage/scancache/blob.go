package scancache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/storage/archive"
)

const (
	historyDir = "history"
	latestFile = "latest.json"
	// Lexically sortable, so List order is chronological.
	objectTimeLayout = "20060102T150405.000000000Z"
)

// Blob persists each scan as a JSON document in an archive.Storage and
// mirrors the newest one to latest.json for external readers.
type Blob struct {
	store archive.Storage
	name  string
}

// NewBlob creates a Blob backend. name labels it in logs ("localfs", "s3").
func NewBlob(store archive.Storage, name string) *Blob {
	return &Blob{store: store, name: name}
}

func (b *Blob) Name() string {
	return b.name
}

func objectPath(r *core.ScanResult) string {
	return path.Join(historyDir, r.ScannedAt.UTC().Format(objectTimeLayout)+"-"+r.ID+".json")
}

func (b *Blob) Append(ctx context.Context, r *core.ScanResult, keep int) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding scan: %w", err)
	}
	if err := b.store.Write(ctx, objectPath(r), data); err != nil {
		return fmt.Errorf("writing scan: %w", err)
	}
	if err := b.store.Write(ctx, latestFile, data); err != nil {
		return fmt.Errorf("writing latest: %w", err)
	}
	return b.prune(ctx, keep)
}

func (b *Blob) prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	paths, err := b.list(ctx)
	if err != nil {
		return err
	}
	if len(paths) <= keep {
		return nil
	}
	for _, p := range paths[:len(paths)-keep] {
		if err := b.store.Delete(ctx, p); err != nil {
			return fmt.Errorf("pruning %s: %w", p, err)
		}
	}
	return nil
}

func (b *Blob) list(ctx context.Context) ([]string, error) {
	all, err := b.store.List(ctx, historyDir)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	paths := all[:0]
	for _, p := range all {
		if strings.HasSuffix(p, ".json") {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// Load reads the newest scans. Unreadable documents are skipped.
func (b *Blob) Load(ctx context.Context, limit int) ([]*core.ScanResult, error) {
	paths, err := b.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*core.ScanResult, 0, len(paths))
	for i := len(paths) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		data, err := b.store.Read(ctx, paths[i])
		if errors.Is(err, archive.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", paths[i], err)
		}
		var r core.ScanResult
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}
