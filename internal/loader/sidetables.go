package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
	"resrepo/internal/textutil"
)

// Side table paths relative to a source root.
const (
	PublicFile  = "public.txt"
	SymbolsFile = "R.txt"
)

// ReadPublic parses public.txt ("<type> <name>" per line) into the public
// surface. ok is false when the file does not exist, in which case every
// resource is public.
func ReadPublic(fsys fs.FS) (public map[repo.TypeName]struct{}, ok bool, err error) {
	lines, err := readLines(fsys, PublicFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	public = make(map[repo.TypeName]struct{}, len(lines))
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, false, fmt.Errorf("%s:%d: expected \"<type> <name>\"", PublicFile, i+1)
		}
		t, known := resource.ParseType(fields[0])
		if !known {
			return nil, false, fmt.Errorf("%s:%d: unknown resource type %q", PublicFile, i+1, fields[0])
		}
		public[repo.TypeName{Type: t, Name: fields[1]}] = struct{}{}
	}
	return public, true, nil
}

// ReadIDs returns the names of the "int id <name> <value>" lines of R.txt in
// file order. A missing file yields no names.
func ReadIDs(fsys fs.FS) ([]string, error) {
	lines, err := readLines(fsys, SymbolsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 4 && fields[0] == "int" && fields[1] == "id" {
			ids = append(ids, fields[2])
		}
	}
	return ids, nil
}

// AddIDs adds an id item for every name that the repository does not
// define yet. It returns the number of items added.
func AddIDs(r *repo.Repository, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	cfg, err := r.Configuration("")
	if err != nil {
		return 0, err
	}
	src, err := r.SourceFile(SymbolsFile, cfg)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, name := range names {
		if len(r.Items(r.Namespace(), resource.ID, name)) > 0 {
			continue
		}
		it := resource.NewValue(resource.Common{
			Type:       resource.ID,
			Name:       name,
			Visibility: r.DefaultVisibility(resource.ID, name),
			Owner:      r,
		}, src, nil, "")
		if err := r.AddItem(it); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func readLines(fsys fs.FS, name string) ([]string, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var out []string
	s := bufio.NewScanner(bytes.NewReader(textutil.NormalizeUTF8LF(b)))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, s.Err()
}
