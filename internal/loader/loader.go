// Package loader produces resource items from a source tree laid out as
// res/<folder>[-qualifiers]/<file>, read through an fs.FS so that
// directories and archives are handled alike.
package loader

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
	"resrepo/internal/walkwalk"
)

// ResDir is the resource directory relative to a source root.
const ResDir = "res"

// fileFolders are the folder types whose files each become one item.
var fileFolders = map[string]resource.Type{
	"anim":         resource.Anim,
	"animator":     resource.Animator,
	"color":        resource.Color,
	"drawable":     resource.Drawable,
	"font":         resource.Font,
	"interpolator": resource.Interpolator,
	"layout":       resource.Layout,
	"menu":         resource.Menu,
	"mipmap":       resource.Mipmap,
	"navigation":   resource.Navigation,
	"raw":          resource.Raw,
	"transition":   resource.Transition,
	"xml":          resource.XML,
}

// Loader adds the items of a source tree to a repository in its load phase.
type Loader struct {
	log  *zap.Logger
	walk walkwalk.Options
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger for skipped files and data conflicts.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// WithMaxFileBytes skips resource files larger than n bytes.
func WithMaxFileBytes(n int64) Option {
	return func(l *Loader) { l.walk.MaxFileBytes = n }
}

// New returns a loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		log: zap.NewNop(),
		walk: walkwalk.Options{
			Prefixes:      []string{ResDir},
			UseIgnoreFile: true,
		},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Stats counts what a Produce call did.
type Stats struct {
	Files   int
	Items   int
	Skipped int
}

// Produce walks fsys and adds every item it finds to r. Unreadable or
// malformed files are logged and skipped; only repository errors abort.
func (l *Loader) Produce(fsys fs.FS, r *repo.Repository) error {
	_, err := l.ProduceStats(fsys, r)
	return err
}

// ProduceStats is Produce with counters.
func (l *Loader) ProduceStats(fsys fs.FS, r *repo.Repository) (Stats, error) {
	var st Stats
	files, _, err := walkwalk.CollectFiles(fsys, l.walk)
	if err != nil {
		return st, fmt.Errorf("walk resources: %w", err)
	}
	for _, f := range files {
		items, ok, err := l.loadFile(fsys, r, f.RelPath)
		if err != nil {
			return st, err
		}
		if !ok {
			st.Skipped++
			continue
		}
		for _, it := range items {
			if err := r.AddItem(it); err != nil {
				return st, fmt.Errorf("%s: %w", f.RelPath, err)
			}
		}
		st.Files++
		st.Items += len(items)
	}
	l.log.Debug("produced resources",
		zap.String("library", r.LibraryName()),
		zap.Int("files", st.Files),
		zap.Int("items", st.Items),
		zap.Int("skipped", st.Skipped),
	)
	return st, nil
}

// SplitFolder splits "values-fr-rCA" into "values" and "fr-rCA".
func SplitFolder(folder string) (kind, qualifier string) {
	kind, qualifier, _ = strings.Cut(folder, "-")
	return kind, qualifier
}

// FileItemName strips the extension from a resource file name, treating
// ".9.png" as a single extension.
func FileItemName(base string) string {
	if strings.HasSuffix(strings.ToLower(base), ".9.png") {
		return base[:len(base)-len(".9.png")]
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// loadFile returns the items of one file. ok is false for skipped files;
// err is only set for repository failures.
func (l *Loader) loadFile(fsys fs.FS, r *repo.Repository, rel string) (items []resource.Item, ok bool, err error) {
	parts := strings.Split(rel, "/")
	if len(parts) != 3 || parts[0] != ResDir || strings.HasPrefix(parts[2], ".") {
		return nil, false, nil
	}
	kind, qualifier := SplitFolder(parts[1])
	cfg, err := r.Configuration(qualifier)
	if err != nil {
		return nil, false, err
	}

	if kind == "values" {
		if path.Ext(parts[2]) != ".xml" {
			return nil, false, nil
		}
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			l.log.Warn("unreadable values file", zap.String("path", rel), zap.Error(err))
			return nil, false, nil
		}
		items, err := parseValues(r, l.log, rel, cfg, data)
		if err != nil {
			l.log.Warn("malformed values file, skipping", zap.String("path", rel), zap.Error(err))
			return nil, false, nil
		}
		return items, true, nil
	}

	t, known := fileFolders[kind]
	if !known {
		l.log.Debug("skipping unknown resource folder", zap.String("path", rel))
		return nil, false, nil
	}
	name := FileItemName(parts[2])
	return []resource.Item{resource.NewFile(resource.Common{
		Type:       t,
		Name:       name,
		Visibility: r.DefaultVisibility(t, name),
		Owner:      r,
	}, cfg, rel)}, true, nil
}
