package resource

// Interner deduplicates configurations, namespace resolvers and source files
// while a repository is loading. It is single-writer and is discarded when
// the repository is frozen.
type Interner struct {
	configs   map[string]*Configuration
	resolvers map[string]*NamespaceResolver
	sources   map[sourceKey]*SourceFile
}

type sourceKey struct {
	path   string
	config *Configuration
}

// NewInterner returns an empty table.
func NewInterner() *Interner {
	return &Interner{
		configs:   make(map[string]*Configuration),
		resolvers: make(map[string]*NamespaceResolver),
		sources:   make(map[sourceKey]*SourceFile),
	}
}

// Configuration returns the canonical configuration for a qualifier string.
func (in *Interner) Configuration(qualifier string) *Configuration {
	if c, ok := in.configs[qualifier]; ok {
		return c
	}
	c := ParseConfiguration(qualifier)
	in.configs[qualifier] = &c
	return &c
}

// Resolver returns the canonical resolver for a declaration list.
func (in *Interner) Resolver(pairs []PrefixURI) *NamespaceResolver {
	if len(pairs) == 0 {
		return EmptyResolver
	}
	r := &NamespaceResolver{pairs: pairs}
	k := r.key()
	if existing, ok := in.resolvers[k]; ok {
		return existing
	}
	r = NewNamespaceResolver(pairs)
	in.resolvers[k] = r
	return r
}

// SourceFile returns the canonical source file record for a path within a
// configuration.
func (in *Interner) SourceFile(path string, config *Configuration) *SourceFile {
	k := sourceKey{path: path, config: config}
	if s, ok := in.sources[k]; ok {
		return s
	}
	s := &SourceFile{Path: path, Config: config}
	in.sources[k] = s
	return s
}

// Len reports the number of distinct configurations, resolvers and source
// files seen so far.
func (in *Interner) Len() (configs, resolvers, sources int) {
	return len(in.configs), len(in.resolvers), len(in.sources)
}
