package resource

import "strings"

// PrefixURI is one namespace declaration in scope where an item was defined.
type PrefixURI struct {
	Prefix string
	URI    string
}

// NamespaceResolver maps short prefixes found inside values back to full
// namespace URIs. It is immutable; structurally equal resolvers are interned
// to one instance per repository.
type NamespaceResolver struct {
	pairs []PrefixURI
}

// EmptyResolver resolves nothing.
var EmptyResolver = &NamespaceResolver{}

// NewNamespaceResolver copies pairs into a new resolver. Callers inside a
// repository should go through the repository's intern table instead.
func NewNamespaceResolver(pairs []PrefixURI) *NamespaceResolver {
	if len(pairs) == 0 {
		return EmptyResolver
	}
	return &NamespaceResolver{pairs: append([]PrefixURI(nil), pairs...)}
}

// Pairs returns the declarations in source order. The slice must not be
// modified.
func (r *NamespaceResolver) Pairs() []PrefixURI { return r.pairs }

// Len returns the number of declarations.
func (r *NamespaceResolver) Len() int { return len(r.pairs) }

// URI returns the URI bound to prefix. Later declarations shadow earlier ones.
func (r *NamespaceResolver) URI(prefix string) (string, bool) {
	if r == nil {
		return "", false
	}
	for i := len(r.pairs) - 1; i >= 0; i-- {
		if r.pairs[i].Prefix == prefix {
			return r.pairs[i].URI, true
		}
	}
	return "", false
}

// Prefix returns the prefix bound to uri.
func (r *NamespaceResolver) Prefix(uri string) (string, bool) {
	if r == nil {
		return "", false
	}
	for i := len(r.pairs) - 1; i >= 0; i-- {
		if r.pairs[i].URI == uri {
			return r.pairs[i].Prefix, true
		}
	}
	return "", false
}

// Resolve splits a possibly prefixed reference like "android:textColor" and
// returns its namespace and local name. Unprefixed names, and names whose
// prefix is unknown, resolve to def.
func (r *NamespaceResolver) Resolve(qualified string, def Namespace) (Namespace, string) {
	ns, local, _ := r.Lookup(qualified, def)
	return ns, local
}

// Lookup is Resolve that also reports whether the prefix, if any, was
// known. For an unknown prefix it returns def and the local name with ok
// false.
func (r *NamespaceResolver) Lookup(qualified string, def Namespace) (ns Namespace, local string, ok bool) {
	prefix, local, prefixed := strings.Cut(qualified, ":")
	if !prefixed {
		return def, qualified, true
	}
	if prefix == "android" {
		return Android, local, true
	}
	if uri, found := r.URI(prefix); found {
		if ns, known := NamespaceFromURI(uri); known {
			return ns, local, true
		}
	}
	return def, local, false
}

// key is the structural identity used by the intern table.
func (r *NamespaceResolver) key() string {
	var b strings.Builder
	for _, p := range r.pairs {
		b.WriteString(p.Prefix)
		b.WriteByte(0)
		b.WriteString(p.URI)
		b.WriteByte(0)
	}
	return b.String()
}
