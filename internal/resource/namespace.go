package resource

import "strings"

const (
	// ResAutoURI is the namespace URI of non-namespaced application and
	// library resources.
	ResAutoURI = "http://schemas.android.com/apk/res-auto"
	// AndroidURI is the namespace URI of the framework resources.
	AndroidURI = "http://schemas.android.com/apk/res/android"
	// ToolsURI is the namespace URI of design-time attributes.
	ToolsURI = "http://schemas.android.com/tools"

	packagePrefix = "http://schemas.android.com/apk/res/"
)

// Namespace identifies the origin of a resource. It is comparable and safe to
// use as a map key.
type Namespace struct {
	uri string
	pkg string
}

var (
	// ResAuto groups resources that are not namespaced.
	ResAuto = Namespace{uri: ResAutoURI}
	// Android is the framework namespace.
	Android = Namespace{uri: AndroidURI, pkg: "android"}
	// Tools is the design-time namespace.
	Tools = Namespace{uri: ToolsURI}
)

// NamespaceFromPackage returns the namespace of a package name.
func NamespaceFromPackage(pkg string) Namespace {
	switch pkg {
	case "", "res-auto":
		return ResAuto
	case "android":
		return Android
	}
	return Namespace{uri: packagePrefix + pkg, pkg: pkg}
}

// NamespaceFromURI resolves a namespace URI. Unknown URIs that do not follow
// the package URI convention are rejected.
func NamespaceFromURI(uri string) (Namespace, bool) {
	switch uri {
	case "", ResAutoURI:
		return ResAuto, true
	case AndroidURI:
		return Android, true
	case ToolsURI:
		return Tools, true
	}
	if pkg, ok := strings.CutPrefix(uri, packagePrefix); ok && pkg != "" {
		return Namespace{uri: uri, pkg: pkg}, true
	}
	return Namespace{}, false
}

// URI returns the full namespace URI.
func (n Namespace) URI() string { return n.uri }

// PackageName returns the package name, empty for res-auto and tools.
func (n Namespace) PackageName() string { return n.pkg }

// IsZero reports whether n is the zero value.
func (n Namespace) IsZero() bool { return n.uri == "" }

func (n Namespace) String() string {
	if n.pkg != "" {
		return n.pkg
	}
	if n.uri == ResAutoURI {
		return "res-auto"
	}
	return n.uri
}
