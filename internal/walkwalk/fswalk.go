// Package walkwalk provides a deterministic, filterable walker over an
// fs.FS used to gather resource sources, and a content fingerprint of the
// files it collects.
package walkwalk

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// IgnoreFile holds gitignore-style patterns at the root of a source tree.
const IgnoreFile = ".rrignore"

// FileInfo is a minimal, deterministic descriptor of a collected file.
type FileInfo struct {
	RelPath string // root-relative path with forward slashes
	Size    int64  // size in bytes
	Ext     string // lowercase extension including dot (e.g., ".xml")
}

// Options filter a walk.
type Options struct {
	// Prefixes restricts the walk to paths under these roots ("res", "R.txt").
	// Empty means the whole tree.
	Prefixes []string
	// Exclude skips entries whose base name equals or starts with a key.
	Exclude map[string]struct{}
	// MaxFileBytes skips larger files. 0 means no limit.
	MaxFileBytes int64
	// UseIgnoreFile honours IgnoreFile patterns when present.
	UseIgnoreFile bool
}

type walkState struct {
	fsys     fs.FS
	opts     Options
	patterns []ignorePattern
	total    int64
	files    []FileInfo
}

// CollectFiles walks fsys and returns the regular files matching opts,
// sorted by path, with their total size.
func CollectFiles(fsys fs.FS, opts Options) ([]FileInfo, int64, error) {
	ws := &walkState{fsys: fsys, opts: opts}
	if opts.UseIgnoreFile {
		if pats, err := parseIgnore(fsys, IgnoreFile); err == nil {
			ws.patterns = pats
		}
	}
	if err := fs.WalkDir(fsys, ".", ws.visit); err != nil {
		return nil, 0, err
	}
	sort.Slice(ws.files, func(i, j int) bool { return ws.files[i].RelPath < ws.files[j].RelPath })
	return ws.files, ws.total, nil
}

func (ws *walkState) visit(p string, d fs.DirEntry, err error) error {
	if err != nil {
		if p == "." {
			return err
		}
		return nil
	}
	if p == "." {
		return nil
	}
	if ws.shouldSkip(p, d) {
		if d.IsDir() {
			return fs.SkipDir
		}
		return nil
	}
	if d.IsDir() {
		if !ws.underPrefix(p, true) {
			return fs.SkipDir
		}
		return nil
	}
	return ws.handleFile(p, d)
}

func (ws *walkState) shouldSkip(rel string, d fs.DirEntry) bool {
	base := path.Base(rel)
	if _, bad := ws.opts.Exclude[base]; bad || hasExcludedPrefix(base, ws.opts.Exclude) {
		return true
	}
	if d.Type()&fs.ModeSymlink != 0 {
		return true
	}
	return matchIgnore(ws.patterns, rel, d.IsDir())
}

// underPrefix reports whether rel lies under one of the walk prefixes. For
// directories, ancestors of a prefix also qualify.
func (ws *walkState) underPrefix(rel string, dir bool) bool {
	if len(ws.opts.Prefixes) == 0 {
		return true
	}
	for _, pre := range ws.opts.Prefixes {
		if rel == pre || strings.HasPrefix(rel, pre+"/") {
			return true
		}
		if dir && strings.HasPrefix(pre, rel+"/") {
			return true
		}
	}
	return false
}

func (ws *walkState) handleFile(rel string, d fs.DirEntry) error {
	if !ws.underPrefix(rel, false) {
		return nil
	}
	info, err := d.Info()
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if ws.opts.MaxFileBytes > 0 && info.Size() > ws.opts.MaxFileBytes {
		return nil
	}
	ws.files = append(ws.files, FileInfo{
		RelPath: rel,
		Size:    info.Size(),
		Ext:     strings.ToLower(path.Ext(rel)),
	})
	ws.total += info.Size()
	return nil
}

// hasExcludedPrefix reports whether base begins with any of the exclude keys.
// This allows skipping "build*" and similar, while still permitting exact-match
// excludes via the map membership check.
func hasExcludedPrefix(base string, exclude map[string]struct{}) bool {
	for k := range exclude {
		if strings.HasPrefix(base, k) {
			return true
		}
	}
	return false
}

// Fingerprint hashes the path and content of every file in order and
// returns the hex digest. Any added, removed, renamed or edited file
// changes the result.
func Fingerprint(fsys fs.FS, files []FileInfo) (string, error) {
	h := xxhash.New()
	for _, fi := range files {
		f, err := fsys.Open(fi.RelPath)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", fi.RelPath, err)
		}
		_, _ = h.WriteString(fi.RelPath)
		_, _ = h.Write([]byte{0})
		n, err := io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", fi.RelPath, err)
		}
		_, _ = fmt.Fprintf(h, "\x00%d\x00", n)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// FingerprintTree collects files with opts and fingerprints them.
func FingerprintTree(fsys fs.FS, opts Options) (string, error) {
	files, _, err := CollectFiles(fsys, opts)
	if err != nil {
		return "", err
	}
	return Fingerprint(fsys, files)
}

// ---------------- ignore file support ----------------

type ignorePattern struct {
	neg     bool           // pattern starts with '!'
	dirOnly bool           // pattern ends with '/'
	rx      *regexp.Regexp // compiled matcher
}

// parseIgnore reads an ignore file and compiles patterns. Minimal support:
//   - '#' comments, blank lines ignored
//   - '!' negation
//   - leading '/' anchors to the root
//   - trailing '/' restricts to directories
//   - '**' matches across directories
//   - '*' and '?' behave like shell globs (not crossing '/')
func parseIgnore(fsys fs.FS, name string) ([]ignorePattern, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var res []ignorePattern
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		neg := false
		if strings.HasPrefix(line, "!") {
			neg = true
			line = strings.TrimSpace(line[1:])
			if line == "" {
				continue
			}
		}
		dirOnly := strings.HasSuffix(line, "/")
		line = strings.TrimSuffix(line, "/")
		anchored := strings.HasPrefix(line, "/")
		line = strings.TrimPrefix(line, "/")
		res = append(res, ignorePattern{neg: neg, dirOnly: dirOnly, rx: compileGlob(line, anchored)})
	}
	return res, s.Err()
}

func compileGlob(glob string, anchored bool) *regexp.Regexp {
	esc := regexp.QuoteMeta(glob)
	esc = strings.ReplaceAll(esc, `\*\*`, "\x00")
	esc = strings.ReplaceAll(esc, `\*`, "[^/]*")
	esc = strings.ReplaceAll(esc, `\?`, "[^/]")
	esc = strings.ReplaceAll(esc, "\x00", ".*")
	if anchored {
		return regexp.MustCompile("^" + esc + "$")
	}
	return regexp.MustCompile("(^|.*/)" + esc + "$")
}

func matchIgnore(pats []ignorePattern, rel string, isDir bool) bool {
	ignored := false
	for _, p := range pats {
		if p.dirOnly && !isDir {
			continue
		}
		if p.rx.MatchString(rel) {
			ignored = !p.neg
		}
	}
	return ignored
}
