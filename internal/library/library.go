// Package library builds the frozen resource repository of one library,
// from its persistent cache when possible and from its sources otherwise.
package library

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"resrepo/internal/attrcanon"
	"resrepo/internal/cache"
	"resrepo/internal/codec"
	"resrepo/internal/loader"
	"resrepo/internal/meta"
	"resrepo/internal/repo"
	"resrepo/internal/resource"
	"resrepo/internal/walkwalk"
	"resrepo/internal/ziputil"
)

// Producer adds the items of a source tree to a repository in its load
// phase.
type Producer interface {
	Produce(fsys fs.FS, r *repo.Repository) error
}

// CachingData enables the persistent cache for a library.
type CachingData struct {
	// CacheFile is the snapshot path. Empty derives it from the source path
	// under cache.DefaultRoot.
	CacheFile string
	// ContentVersion identifies the source content. Empty computes a
	// fingerprint of the resource files.
	ContentVersion string
	// CodeVersion identifies the build of the code writing the snapshot.
	CodeVersion string
	// Executor runs the background save. Nil uses a new goroutine.
	Executor cache.Executor
	// Filter selects the configurations written to the snapshot. Nil keeps
	// all of them.
	Filter resource.ConfigFilter
}

type options struct {
	log      *zap.Logger
	producer Producer
	manager  *cache.Manager

	prebuiltZip   string
	prebuiltEntry string
}

// Option configures CreateFromSource.
type Option func(*options)

// WithLogger sets the logger of the repository and every step.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithProducer replaces the default source loader.
func WithProducer(p Producer) Option {
	return func(o *options) { o.producer = p }
}

// WithCacheManager replaces the default cache manager.
func WithCacheManager(m *cache.Manager) Option {
	return func(o *options) { o.manager = m }
}

// WithPrebuilt tries the snapshot stored as entry of the zip at zipPath
// before the per-library cache file.
func WithPrebuilt(zipPath, entry string) Option {
	return func(o *options) {
		o.prebuiltZip = zipPath
		o.prebuiltEntry = entry
	}
}

// contentPrefixes are the paths whose content defines the content version.
// The ignore file is included since it changes which sources are loaded.
var contentPrefixes = []string{loader.ResDir, loader.PublicFile, loader.SymbolsFile, walkwalk.IgnoreFile}

// CreateFromSource returns the frozen repository of the library at root, a
// directory or archive. With caching set, a valid snapshot is used when
// present; otherwise the sources are loaded and a snapshot is written in the
// background while the repository is already returned.
func CreateFromSource(root string, ns resource.Namespace, libraryName string, caching *CachingData, opts ...Option) (*repo.Repository, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.producer == nil {
		o.producer = loader.New(loader.WithLogger(o.log))
	}
	if o.manager == nil {
		o.manager = cache.NewManager(cache.WithLogger(o.log))
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsys, closer, err := ziputil.OpenFS(abs)
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", libraryName, err)
	}
	defer closer.Close()

	log := o.log.With(zap.String("library", libraryName))
	repoOpts := repo.Options{
		Namespace:      ns,
		LibraryName:    libraryName,
		SourceLocation: abs,
		Logger:         log,
	}

	var (
		header    codec.Header
		cacheFile string
	)
	if caching != nil {
		header, cacheFile, err = cacheKey(fsys, abs, caching)
		if err != nil {
			return nil, err
		}
		if r := o.tryCache(header, cacheFile, repoOpts); r != nil {
			return finish(r, abs)
		}
	}

	r := repo.New(repoOpts)
	if err := load(fsys, r, o.producer); err != nil {
		return nil, fmt.Errorf("load library %s: %w", libraryName, err)
	}
	if _, err := finish(r, abs); err != nil {
		return nil, err
	}
	if caching != nil {
		o.manager.SaveAsync(caching.Executor, r, cacheFile, header, caching.Filter)
	}
	log.Info("loaded resources from source",
		zap.String("source", abs),
		zap.Int("items", r.Len()),
	)
	return r, nil
}

// CacheHeader returns the snapshot header and cache file CreateFromSource
// uses for root with caching. Prebuilt bundles must be written with this
// header to be accepted.
func CacheHeader(root string, caching CachingData) (codec.Header, string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return codec.Header{}, "", err
	}
	fsys, closer, err := ziputil.OpenFS(abs)
	if err != nil {
		return codec.Header{}, "", err
	}
	defer closer.Close()
	return cacheKey(fsys, abs, &caching)
}

func cacheKey(fsys fs.FS, abs string, caching *CachingData) (codec.Header, string, error) {
	content := caching.ContentVersion
	if content == "" {
		fp, err := walkwalk.FingerprintTree(fsys, walkwalk.Options{Prefixes: contentPrefixes})
		if err != nil {
			return codec.Header{}, "", fmt.Errorf("content version: %w", err)
		}
		content = fp
	}
	file := caching.CacheFile
	if file == "" {
		file = cache.CacheFile(cache.DefaultRoot, abs)
	}
	return codec.Header{
		SourceLocation: abs,
		ContentVersion: content,
		CodeVersion:    caching.CodeVersion,
	}, file, nil
}

// tryCache returns a frozen repository from the prebuilt bundle or the
// cache file, or nil on a miss.
func (o *options) tryCache(h codec.Header, cacheFile string, repoOpts repo.Options) *repo.Repository {
	if o.prebuiltZip != "" {
		data, err := ziputil.ReadEntry(o.prebuiltZip, o.prebuiltEntry)
		if err == nil {
			r, err := o.manager.Load(o.prebuiltZip+"!"+o.prebuiltEntry, data, h, repoOpts)
			if err == nil {
				return r
			}
		} else {
			o.log.Debug("prebuilt resource cache unavailable", zap.Error(err))
		}
	}
	r, err := o.manager.TryLoad(cacheFile, h, repoOpts)
	if err != nil {
		return nil
	}
	return r
}

// load runs the producer between installing the public surface and
// freezing.
func load(fsys fs.FS, r *repo.Repository, p Producer) error {
	public, ok, err := loader.ReadPublic(fsys)
	if err != nil {
		return err
	}
	if ok {
		if err := r.SetPublicSurface(public); err != nil {
			return err
		}
	}
	if err := p.Produce(fsys, r); err != nil {
		return err
	}
	ids, err := loader.ReadIDs(fsys)
	if err != nil {
		return err
	}
	if _, err := loader.AddIDs(r, ids); err != nil {
		return err
	}
	r.Freeze()
	return nil
}

// finish canonicalizes styleables and installs the lazy package name.
func finish(r *repo.Repository, abs string) (*repo.Repository, error) {
	if _, err := attrcanon.Apply(r); err != nil {
		return nil, err
	}
	r.SetPackageNameLoader(func() string { return packageName(r.Logger(), abs) })
	return r, nil
}

func packageName(log *zap.Logger, abs string) string {
	fsys, closer, err := ziputil.OpenFS(abs)
	if err != nil {
		log.Warn("cannot read package name", zap.Error(err))
		return ""
	}
	defer closer.Close()
	return meta.PackageName(fsys)
}
