// Package resource defines the typed resource data model: resource types,
// namespaces, configurations, namespace resolvers and the immutable item
// variants held by a repository.
package resource

import "strings"

// Type is the closed set of resource types. The numeric order is part of the
// binary cache format; append new types only together with a format bump.
type Type uint8

const (
	Anim Type = iota
	Animator
	Array
	Attr
	Bool
	Color
	Dimen
	Drawable
	Font
	Fraction
	ID
	Integer
	Interpolator
	Layout
	Menu
	Mipmap
	Navigation
	Plurals
	Raw
	String
	Style
	Styleable
	Transition
	XML

	// NumTypes is the number of resource types.
	NumTypes int = iota
)

var typeNames = [...]string{
	Anim:         "anim",
	Animator:     "animator",
	Array:        "array",
	Attr:         "attr",
	Bool:         "bool",
	Color:        "color",
	Dimen:        "dimen",
	Drawable:     "drawable",
	Font:         "font",
	Fraction:     "fraction",
	ID:           "id",
	Integer:      "integer",
	Interpolator: "interpolator",
	Layout:       "layout",
	Menu:         "menu",
	Mipmap:       "mipmap",
	Navigation:   "navigation",
	Plurals:      "plurals",
	Raw:          "raw",
	String:       "string",
	Style:        "style",
	Styleable:    "styleable",
	Transition:   "transition",
	XML:          "xml",
}

// aliases maps XML tag names that differ from the type name.
var aliases = map[string]Type{
	"string-array":      Array,
	"integer-array":     Array,
	"declare-styleable": Styleable,
}

// String returns the lowercase name used in folders and R.txt.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool { return int(t) < NumTypes }

// ParseType resolves a type name, folder name or XML tag name.
func ParseType(name string) (Type, bool) {
	name = strings.TrimSpace(name)
	if t, ok := aliases[name]; ok {
		return t, true
	}
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return 0, false
}

// Types returns all resource types in format order.
func Types() []Type {
	out := make([]Type, NumTypes)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// Visibility of a resource to consumers of the repository.
type Visibility uint8

const (
	Undefined Visibility = iota
	Private
	Public
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Public:
		return "public"
	default:
		return "undefined"
	}
}

// Kind discriminates the concrete item variants. The values are written to
// the binary cache as the item discriminator byte.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindValue
	KindArray
	KindPlurals
	KindAttr
	KindStyle
	KindStyleable
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindValue:
		return "value"
	case KindArray:
		return "array"
	case KindPlurals:
		return "plurals"
	case KindAttr:
		return "attr"
	case KindStyle:
		return "style"
	case KindStyleable:
		return "styleable"
	default:
		return "invalid"
	}
}

// Valid reports whether k is a known discriminator.
func (k Kind) Valid() bool { return k >= KindFile && k <= KindStyleable }

// fileTypes are the types a file item may carry.
var fileTypes = map[Type]bool{
	Anim:         true,
	Animator:     true,
	Color:        true,
	Drawable:     true,
	Font:         true,
	Interpolator: true,
	Layout:       true,
	Menu:         true,
	Mipmap:       true,
	Navigation:   true,
	Raw:          true,
	Transition:   true,
	XML:          true,
}

// Allows reports whether an item of kind k may have resource type t.
func (k Kind) Allows(t Type) bool {
	switch k {
	case KindFile:
		return fileTypes[t]
	case KindArray:
		return t == Array
	case KindPlurals:
		return t == Plurals
	case KindAttr:
		return t == Attr
	case KindStyle:
		return t == Style
	case KindStyleable:
		return t == Styleable
	case KindValue:
		switch t {
		case Array, Plurals, Attr, Style, Styleable:
			return false
		}
		return t.Valid()
	}
	return false
}
