package resource

import (
	"strconv"
	"strings"
)

// Configuration is a qualifier set selecting the device conditions under
// which a resource variant applies. Instances are interned per repository:
// items hold a pointer to the shared instance.
type Configuration struct {
	// Qualifier is the folder qualifier string, e.g. "fr-rCA-hdpi-v21".
	// The default configuration has an empty qualifier.
	Qualifier string

	Language string
	Region   string
	Density  string
	API      int
}

var densities = map[string]struct{}{
	"ldpi": {}, "mdpi": {}, "tvdpi": {}, "hdpi": {}, "xhdpi": {}, "xxhdpi": {},
	"xxxhdpi": {}, "nodpi": {}, "anydpi": {},
}

// ParseConfiguration splits a qualifier string into its known parts.
// Unrecognised segments are kept in the qualifier only.
func ParseConfiguration(qualifier string) Configuration {
	c := Configuration{Qualifier: qualifier}
	if qualifier == "" {
		return c
	}
	for i, seg := range strings.Split(qualifier, "-") {
		switch {
		case strings.HasPrefix(seg, "b+"):
			parts := strings.Split(seg[2:], "+")
			c.Language = parts[0]
			if len(parts) > 1 {
				c.Region = strings.Join(parts[1:], "+")
			}
		case isLanguage(seg) && c.Language == "" && i == 0:
			c.Language = seg
		case isRegion(seg) && c.Language != "" && c.Region == "":
			c.Region = seg[1:]
		case isDensity(seg):
			c.Density = seg
		case isAPI(seg):
			c.API, _ = strconv.Atoi(seg[1:])
		}
	}
	return c
}

// HasLocale reports whether the configuration selects a language.
func (c *Configuration) HasLocale() bool { return c.Language != "" }

// IsDefault reports whether c has no qualifiers.
func (c *Configuration) IsDefault() bool { return c.Qualifier == "" }

func (c *Configuration) String() string {
	if c.Qualifier == "" {
		return "default"
	}
	return c.Qualifier
}

func isLanguage(s string) bool {
	if len(s) != 2 && len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

func isRegion(s string) bool {
	if len(s) != 3 || s[0] != 'r' {
		return false
	}
	for i := 1; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func isDensity(s string) bool {
	if _, ok := densities[s]; ok {
		return true
	}
	n, ok := strings.CutSuffix(s, "dpi")
	if !ok || n == "" {
		return false
	}
	_, err := strconv.Atoi(n)
	return err == nil
}

func isAPI(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

// ConfigFilter decides which configurations are eligible for encoding.
type ConfigFilter func(*Configuration) bool

// AllConfigs accepts every configuration.
func AllConfigs() ConfigFilter { return func(*Configuration) bool { return true } }

// MaxAPI accepts configurations that apply at or below the given API level.
// A non-positive level disables the limit.
func MaxAPI(level int) ConfigFilter {
	return func(c *Configuration) bool { return level <= 0 || c.API <= level }
}

// WithoutLocale accepts configurations that do not select a language.
func WithoutLocale() ConfigFilter {
	return func(c *Configuration) bool { return !c.HasLocale() }
}

// And combines filters; nil filters are skipped.
func And(filters ...ConfigFilter) ConfigFilter {
	return func(c *Configuration) bool {
		for _, f := range filters {
			if f != nil && !f(c) {
				return false
			}
		}
		return true
	}
}
