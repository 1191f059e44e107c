package resource

import "strings"

// AttrFormat is a bitmask of the value formats an attribute accepts.
type AttrFormat uint32

const (
	FormatReference AttrFormat = 1 << iota
	FormatString
	FormatColor
	FormatDimension
	FormatBoolean
	FormatInteger
	FormatFloat
	FormatFraction
	FormatEnum
	FormatFlags
)

var formatNames = []struct {
	f    AttrFormat
	name string
}{
	{FormatReference, "reference"},
	{FormatString, "string"},
	{FormatColor, "color"},
	{FormatDimension, "dimension"},
	{FormatBoolean, "boolean"},
	{FormatInteger, "integer"},
	{FormatFloat, "float"},
	{FormatFraction, "fraction"},
	{FormatEnum, "enum"},
	{FormatFlags, "flags"},
}

// ParseAttrFormat parses a "|" separated format list such as
// "reference|color". Unknown names are ignored.
func ParseAttrFormat(s string) AttrFormat {
	var out AttrFormat
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		for _, fn := range formatNames {
			if fn.name == part {
				out |= fn.f
			}
		}
	}
	return out
}

func (f AttrFormat) String() string {
	var parts []string
	for _, fn := range formatNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// AttrSymbol is one enum or flag value of an attribute.
type AttrSymbol struct {
	Name        string
	Value       int64
	HasValue    bool
	Description string
}

// AttrDef is the payload of an attribute definition.
type AttrDef struct {
	Formats     AttrFormat
	Symbols     []AttrSymbol
	Description string
	Group       string
}

// AttrItem is a declared attribute. An AttrItem without formats inside a
// styleable is a loose reference pending canonicalization.
type AttrItem struct {
	valueBase
	def AttrDef
}

// NewAttr builds an attribute item.
func NewAttr(c Common, source *SourceFile, resolver *NamespaceResolver, def AttrDef) *AttrItem {
	def.Symbols = append([]AttrSymbol(nil), def.Symbols...)
	return &AttrItem{valueBase: newValueBase(c, source, resolver), def: def}
}

func (a *AttrItem) Kind() Kind    { return KindAttr }
func (a *AttrItem) Value() string { return a.def.Formats.String() }

// Formats returns the accepted formats.
func (a *AttrItem) Formats() AttrFormat { return a.def.Formats }

// Symbols returns the enum/flag table. The slice must not be modified.
func (a *AttrItem) Symbols() []AttrSymbol { return a.def.Symbols }

// Description returns the documentation text.
func (a *AttrItem) Description() string { return a.def.Description }

// Group returns the attribute group name.
func (a *AttrItem) Group() string { return a.def.Group }

// Loose reports whether the attribute declares no format.
func (a *AttrItem) Loose() bool { return a.def.Formats == 0 }

// Def returns a copy of the attribute payload.
func (a *AttrItem) Def() AttrDef {
	d := a.def
	d.Symbols = append([]AttrSymbol(nil), d.Symbols...)
	return d
}
