// Package cache persists frozen repositories as binary snapshots so later
// process starts can skip parsing the original sources.
//
// A snapshot is only used when its header matches the expected provenance
// byte for byte. Every failure on the load path (missing file, I/O error,
// header mismatch, malformed body) is reported as a *MissError and the
// caller falls back to its producer. Saving is an optimization: errors are
// logged and returned, never fatal.
//
// Conventions:
//   - The cache root defaults to "tmp/.rrcache" unless overridden by the caller.
//   - A per-source cache lives at: <root>/<pathKey>/
//   - The snapshot is stored at:   <root>/<pathKey>/resources.bin
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"resrepo/internal/codec"
	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

const (
	// DefaultRoot is used when no cache root is configured.
	DefaultRoot = "tmp/.rrcache"
	// FileName is the snapshot file inside a per-source cache directory.
	FileName = "resources.bin"
)

// PathKey returns a short, stable identifier for an absolute source path.
func PathKey(abs string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(abs))
}

// CacheDir resolves the cache directory for the given absolute source path.
// If root is empty, it falls back to DefaultRoot.
func CacheDir(root, srcAbs string) string {
	if root == "" {
		root = DefaultRoot
	}
	return filepath.Join(root, PathKey(srcAbs))
}

// CacheFile is the snapshot path for a source.
func CacheFile(root, srcAbs string) string {
	return filepath.Join(CacheDir(root, srcAbs), FileName)
}

// Clear removes a cache directory. Safe to call when it does not exist.
func Clear(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.RemoveAll(dir)
}

// MissError explains why a snapshot could not be used.
type MissError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MissError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache miss: %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("cache miss: %s: %s", e.Path, e.Reason)
}

func (e *MissError) Unwrap() error { return e.Err }

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	var m *MissError
	return errors.As(err, &m)
}

// Manager loads and saves snapshots.
type Manager struct {
	log        *zap.Logger
	internStrs bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for misses and write failures.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithStringInterning makes decoded repositories share identical strings.
func WithStringInterning(on bool) Option {
	return func(m *Manager) { m.internStrs = on }
}

// NewManager returns a manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{log: zap.NewNop(), internStrs: true}
	for _, o := range opts {
		o(m)
	}
	return m
}

// TryLoad reads the snapshot at path and returns a frozen repository built
// with opts. Any failure yields a *MissError and no repository.
func (m *Manager) TryLoad(path string, want codec.Header, opts repo.Options) (*repo.Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		reason := "read failed"
		if errors.Is(err, os.ErrNotExist) {
			reason = "not found"
		}
		return nil, m.miss(path, reason, err)
	}
	return m.load(path, data, want, opts)
}

// Load decodes an in-memory snapshot, e.g. an entry of a prebuilt bundle.
// name labels the snapshot in errors.
func (m *Manager) Load(name string, data []byte, want codec.Header, opts repo.Options) (*repo.Repository, error) {
	return m.load(name, data, want, opts)
}

func (m *Manager) load(path string, data []byte, want codec.Header, opts repo.Options) (r *repo.Repository, err error) {
	// A panic while decoding is reported as a miss.
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, m.miss(path, "decoder panic", fmt.Errorf("%v", p))
		}
	}()
	if opts.SourceLocation == "" {
		opts.SourceLocation = want.SourceLocation
	}
	if opts.Logger == nil {
		opts.Logger = m.log
	}
	target := repo.New(opts)
	var decodeOpts []codec.DecodeOption
	if m.internStrs {
		decodeOpts = append(decodeOpts, codec.WithStringCache(codec.MapStringCache{}))
	}
	if err := codec.Decode(data, want, target, decodeOpts...); err != nil {
		reason := "malformed snapshot"
		if errors.Is(err, codec.ErrHeaderMismatch) {
			reason = "header mismatch"
		}
		return nil, m.miss(path, reason, err)
	}
	target.Freeze()
	m.log.Debug("loaded resource cache",
		zap.String("path", path),
		zap.Int("items", target.Len()),
	)
	return target, nil
}

func (m *Manager) miss(path, reason string, err error) error {
	m.log.Debug("resource cache miss",
		zap.String("path", path),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return &MissError{Path: path, Reason: reason, Err: err}
}

// Save writes the items of r accepted by filter to path atomically: the
// snapshot goes to a temporary file in the same directory which is then
// renamed over path, so readers never observe a partially-written file. On
// failure the temporary file is removed and the error is logged and
// returned.
func (m *Manager) Save(r *repo.Repository, path string, h codec.Header, filter resource.ConfigFilter) error {
	err := m.save(r, path, h, filter)
	if err != nil {
		m.log.Warn("failed to write resource cache",
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return err
}

func (m *Manager) save(r *repo.Repository, path string, h codec.Header, filter resource.ConfigFilter) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, f, err := createTempFile(dir, filepath.Base(path))
	if err != nil {
		return err
	}
	stats, err := codec.Encode(f, r, h, filter)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp) // best-effort cleanup
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	m.log.Debug("wrote resource cache",
		zap.String("path", path),
		zap.Int("items", stats.Items),
		zap.Int64("bytes", stats.Bytes),
	)
	return nil
}

// Executor runs a task, typically on a background goroutine.
type Executor func(task func())

// GoExecutor runs each task on a new goroutine.
func GoExecutor(task func()) { go task() }

// SaveAsync schedules Save on exec. The returned channel receives the
// result once and is then closed. r must be frozen: the write only iterates
// it, so concurrent readers are unaffected.
func (m *Manager) SaveAsync(exec Executor, r *repo.Repository, path string, h codec.Header, filter resource.ConfigFilter) <-chan error {
	done := make(chan error, 1)
	if exec == nil {
		exec = GoExecutor
	}
	exec(func() {
		done <- m.Save(r, path, h, filter)
		close(done)
	})
	return done
}

// createTempFile creates a temporary file in the target directory with a
// name derived from base (".tmp-<base>-<rand>"), returning its path and an
// *os.File ready for writing. Caller is responsible for closing it.
func createTempFile(dir, base string) (string, *os.File, error) {
	f, err := os.CreateTemp(dir, ".tmp-"+base+"-")
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}
