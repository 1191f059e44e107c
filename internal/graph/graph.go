// Package graph builds the style inheritance graph of a repository.
//
// Design goals:
//   - Deterministic output (sorted nodes/edges, deduped)
//   - Tolerant to parents defined outside the repository
//
// Notes:
//   - Nodes are style names as declared, e.g. "Widget.Demo".
//   - An edge runs from a style to its parent. Explicit parents are taken
//     from the style item; a style without one inherits from the prefix
//     before its last dot when that style exists in the repository.
//   - Parents in another namespace ("@android:style/Theme") are not nodes.
package graph

import (
	"sort"
	"strings"

	"resrepo/internal/repo"
	"resrepo/internal/resource"
)

// Graph is a simple directed graph (no weights).
type Graph struct {
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// ParentName normalizes a style parent reference. local is false for
// references into another namespace.
func ParentName(parent string) (name string, local bool) {
	p := strings.TrimSpace(parent)
	p = strings.TrimPrefix(p, "?")
	p = strings.TrimPrefix(p, "@")
	if pkg, rest, ok := strings.Cut(p, ":"); ok {
		if pkg != "" && pkg != "*" {
			return strings.TrimPrefix(rest, "style/"), false
		}
		p = rest
	}
	return strings.TrimPrefix(p, "style/"), true
}

// StyleParents returns the inheritance graph of the styles in r.
func StyleParents(r *repo.Repository) Graph {
	nodeSet := make(map[string]struct{})
	edgeSet := make(map[[2]string]struct{})
	names := r.Names(resource.Style)
	defined := make(map[string]struct{}, len(names))
	for _, n := range names {
		defined[n] = struct{}{}
	}
	for _, name := range names {
		addNode(nodeSet, name)
		for _, it := range r.Items(r.Namespace(), resource.Style, name) {
			s, ok := it.(*resource.StyleItem)
			if !ok {
				continue
			}
			parent, local := ParentName(s.Parent())
			if s.Parent() == "" {
				parent, local = implicitParent(name, defined)
			}
			if !local || parent == "" {
				continue
			}
			addNode(nodeSet, parent)
			addEdge(edgeSet, name, parent)
		}
	}
	edges := make([][2]string, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return Graph{Nodes: setToSortedSlice(nodeSet), Edges: edges}
}

func implicitParent(name string, defined map[string]struct{}) (string, bool) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return "", false
	}
	p := name[:i]
	if _, ok := defined[p]; !ok {
		return "", false
	}
	return p, true
}

// Cycles returns every strongly connected set of nodes that contains a
// cycle, self loops included. Each cycle is sorted, and the list is sorted
// by first node.
func (g Graph) Cycles() [][]string {
	adj := make(map[string][]string, len(g.Nodes))
	self := make(map[string]bool)
	for _, e := range g.Edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		if e[0] == e[1] {
			self[e[0]] = true
		}
	}

	// Tarjan's algorithm over the sorted node list.
	var (
		index   = make(map[string]int, len(g.Nodes))
		low     = make(map[string]int, len(g.Nodes))
		onStack = make(map[string]bool, len(g.Nodes))
		stack   []string
		next    int
		out     [][]string
	)
	var visit func(v string)
	visit = func(v string) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range adj[v] {
			if _, seen := index[w]; !seen {
				visit(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}
		if low[v] != index[v] {
			return
		}
		var comp []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		if len(comp) > 1 || self[v] {
			sort.Strings(comp)
			out = append(out, comp)
		}
	}
	for _, v := range g.Nodes {
		if _, seen := index[v]; !seen {
			visit(v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func addNode(set map[string]struct{}, n string) {
	if n == "" {
		return
	}
	set[n] = struct{}{}
}

func addEdge(set map[[2]string]struct{}, from, to string) {
	if from == "" || to == "" {
		return
	}
	set[[2]string{from, to}] = struct{}{}
}

func setToSortedSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
