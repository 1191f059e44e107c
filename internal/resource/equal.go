package resource

import "slices"

// Equal reports whether two items are structurally equal: same variant,
// common fields, configuration qualifier and payload. Owners and the
// identity of interned configurations and resolvers are not compared.
func Equal(a, b Item) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() || a.Type() != b.Type() || a.Name() != b.Name() ||
		a.Namespace() != b.Namespace() || a.Visibility() != b.Visibility() {
		return false
	}
	if qualifierOf(a) != qualifierOf(b) {
		return false
	}
	switch x := a.(type) {
	case *FileItem:
		return x.path == b.(*FileItem).path
	case *ValueItem:
		y := b.(*ValueItem)
		return x.value == y.value && sameValueBase(&x.valueBase, &y.valueBase)
	case *ArrayItem:
		y := b.(*ArrayItem)
		return x.defaultIndex == y.defaultIndex && slices.Equal(x.elements, y.elements) &&
			sameValueBase(&x.valueBase, &y.valueBase)
	case *PluralsItem:
		y := b.(*PluralsItem)
		return slices.Equal(x.quantities, y.quantities) && sameValueBase(&x.valueBase, &y.valueBase)
	case *AttrItem:
		return equalAttr(x, b.(*AttrItem))
	case *StyleItem:
		y := b.(*StyleItem)
		if x.parent != y.parent || len(x.entries) != len(y.entries) || !sameValueBase(&x.valueBase, &y.valueBase) {
			return false
		}
		for i := range x.entries {
			ex, ey := x.entries[i], y.entries[i]
			if ex.Attr != ey.Attr || ex.Value != ey.Value || !slices.Equal(ex.Resolver.pairs, ey.Resolver.pairs) {
				return false
			}
		}
		return true
	case *StyleableItem:
		y := b.(*StyleableItem)
		if len(x.attrs) != len(y.attrs) || !sameValueBase(&x.valueBase, &y.valueBase) {
			return false
		}
		for i := range x.attrs {
			if !equalAttr(x.attrs[i], y.attrs[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func equalAttr(x, y *AttrItem) bool {
	if x == y {
		return true
	}
	if x.name != y.name || x.ns != y.ns || x.vis != y.vis {
		return false
	}
	return x.def.Formats == y.def.Formats &&
		x.def.Description == y.def.Description &&
		x.def.Group == y.def.Group &&
		slices.Equal(x.def.Symbols, y.def.Symbols) &&
		sameValueBase(&x.valueBase, &y.valueBase)
}

func sameValueBase(x, y *valueBase) bool {
	if x.source.Path != y.source.Path || x.source.Config.Qualifier != y.source.Config.Qualifier {
		return false
	}
	return slices.Equal(x.resolver.pairs, y.resolver.pairs)
}

func qualifierOf(it Item) string {
	if c := it.Configuration(); c != nil {
		return c.Qualifier
	}
	return ""
}
