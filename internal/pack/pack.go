// Package pack writes prebuilt cache bundles: one zip holding a snapshot of
// every configuration and a snapshot without locale-specific
// configurations, both under the same header.
package pack

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"resrepo/internal/codec"
	"resrepo/internal/repo"
	"resrepo/internal/resource"
	"resrepo/internal/ziputil"
)

// Bundle entry names.
const (
	FullEntry     = "resources.bin"
	NoLocaleEntry = "resources_nolocale.bin"
	ManifestEntry = "pack.json"
)

// Options control a bundle.
type Options struct {
	// MaxAPI drops configurations above this API level. 0 keeps all.
	MaxAPI int
	Logger *zap.Logger
}

// EntryInfo describes one snapshot in a bundle.
type EntryInfo struct {
	Name           string `json:"name"`
	Items          int    `json:"items"`
	Configurations int    `json:"configurations"`
	SourceFiles    int    `json:"sourceFiles"`
	Resolvers      int    `json:"resolvers"`
	Bytes          int64  `json:"bytes"`
}

// Manifest is written as pack.json next to the snapshots.
type Manifest struct {
	FormatVersion  string      `json:"formatVersion"`
	Library        string      `json:"library"`
	SourceLocation string      `json:"sourceLocation"`
	ContentVersion string      `json:"contentVersion"`
	CodeVersion    string      `json:"codeVersion"`
	MaxAPI         int         `json:"maxApi,omitempty"`
	Entries        []EntryInfo `json:"entries"`
}

type encoded struct {
	name  string
	data  bytes.Buffer
	stats codec.Stats
}

// Write encodes both snapshots concurrently and writes the bundle to out.
// r must be frozen.
func Write(ctx context.Context, out io.Writer, r *repo.Repository, h codec.Header, opts Options) (Manifest, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	entries := []*encoded{{name: FullEntry}, {name: NoLocaleEntry}}
	filters := []resource.ConfigFilter{
		resource.MaxAPI(opts.MaxAPI),
		resource.And(resource.MaxAPI(opts.MaxAPI), resource.WithoutLocale()),
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		filter := filters[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := codec.Encode(&e.data, r, h, filter)
			if err != nil {
				return fmt.Errorf("encode %s: %w", e.name, err)
			}
			e.stats = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Manifest{}, err
	}

	m := Manifest{
		FormatVersion:  codec.FormatVersion,
		Library:        r.LibraryName(),
		SourceLocation: h.SourceLocation,
		ContentVersion: h.ContentVersion,
		CodeVersion:    h.CodeVersion,
		MaxAPI:         opts.MaxAPI,
	}
	zw := zip.NewWriter(out)
	for _, e := range entries {
		if err := ziputil.CopyFromReader(zw, e.name, &e.data); err != nil {
			return Manifest{}, err
		}
		m.Entries = append(m.Entries, EntryInfo{
			Name:           e.name,
			Items:          e.stats.Items,
			Configurations: e.stats.Configurations,
			SourceFiles:    e.stats.SourceFiles,
			Resolvers:      e.stats.Resolvers,
			Bytes:          e.stats.Bytes,
		})
		log.Debug("packed snapshot",
			zap.String("entry", e.name),
			zap.Int("items", e.stats.Items),
			zap.Int64("bytes", e.stats.Bytes),
		)
	}
	if err := ziputil.WriteJSON(zw, ManifestEntry, m); err != nil {
		return Manifest{}, err
	}
	if err := zw.Close(); err != nil {
		return Manifest{}, fmt.Errorf("close bundle: %w", err)
	}
	return m, nil
}

// WriteFile writes the bundle to path through a temporary file renamed into
// place.
func WriteFile(ctx context.Context, path string, r *repo.Repository, h codec.Header, opts Options) (Manifest, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Manifest{}, err
	}
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return Manifest{}, err
	}
	tmp := f.Name()
	m, err := Write(ctx, f, r, h, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return Manifest{}, err
	}
	return m, nil
}
