// Package meta detects library metadata (package name, SDK levels) from the
// manifest or build script of a resource source tree.
//
// Parsing is best-effort: absent or malformed files yield empty fields.
package meta

import (
	"bufio"
	"encoding/xml"
	"io/fs"
	"regexp"
	"strings"
)

// ManifestFile is the manifest path relative to a source root.
const ManifestFile = "AndroidManifest.xml"

// Info contains a minimal summary of library metadata.
type Info struct {
	Source      string // "manifest"|"gradle"|"" (unknown)
	Package     string // e.g. "com.example.demo"
	MinSDK      string // e.g. "21"
	TargetSDK   string // e.g. "34"
	VersionName string // e.g. "1.2.0"
}

// Detect probes the source root. Priority (first hit wins for Package):
// AndroidManifest.xml > build.gradle(.kts).
func Detect(fsys fs.FS) Info {
	if inf, ok := detectManifest(fsys, ManifestFile); ok && inf.Package != "" {
		return inf
	}
	for _, name := range []string{"build.gradle", "build.gradle.kts"} {
		if inf, ok := detectGradle(fsys, name); ok {
			return inf
		}
	}
	return Info{}
}

// PackageName returns the detected package name or "".
func PackageName(fsys fs.FS) string {
	return Detect(fsys).Package
}

// ------------------------------ Manifest -------------------------------------

type manifestXML struct {
	XMLName     xml.Name `xml:"manifest"`
	Package     string   `xml:"package,attr"`
	VersionName string   `xml:"versionName,attr"`
	UsesSDK     struct {
		Min    string `xml:"minSdkVersion,attr"`
		Target string `xml:"targetSdkVersion,attr"`
	} `xml:"uses-sdk"`
}

func detectManifest(fsys fs.FS, name string) (Info, bool) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Info{}, false
	}
	var m manifestXML
	if err := xml.Unmarshal(b, &m); err != nil {
		return Info{}, false
	}
	return Info{
		Source:      "manifest",
		Package:     strings.TrimSpace(m.Package),
		MinSDK:      m.UsesSDK.Min,
		TargetSDK:   m.UsesSDK.Target,
		VersionName: m.VersionName,
	}, true
}

// ------------------------------ Gradle ---------------------------------------

var (
	reGradleNamespace = regexp.MustCompile(`^\s*namespace\s*=?\s*["']([\w.]+)["']`)
	reGradleAppID     = regexp.MustCompile(`^\s*applicationId\s*=?\s*["']([\w.]+)["']`)
	reGradleMinSDK    = regexp.MustCompile(`^\s*minSdk(?:Version)?\s*=?\s*(\d+)`)
	reGradleTargetSDK = regexp.MustCompile(`^\s*targetSdk(?:Version)?\s*=?\s*(\d+)`)
	reGradleVersion   = regexp.MustCompile(`^\s*versionName\s*=?\s*["']([^"']+)["']`)
)

func detectGradle(fsys fs.FS, name string) (Info, bool) {
	f, err := fsys.Open(name)
	if err != nil {
		return Info{}, false
	}
	defer f.Close()

	inf := Info{Source: "gradle"}
	var appID string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := s.Text()
		switch {
		case inf.Package == "" && reGradleNamespace.MatchString(line):
			inf.Package = reGradleNamespace.FindStringSubmatch(line)[1]
		case appID == "" && reGradleAppID.MatchString(line):
			appID = reGradleAppID.FindStringSubmatch(line)[1]
		case inf.MinSDK == "" && reGradleMinSDK.MatchString(line):
			inf.MinSDK = reGradleMinSDK.FindStringSubmatch(line)[1]
		case inf.TargetSDK == "" && reGradleTargetSDK.MatchString(line):
			inf.TargetSDK = reGradleTargetSDK.FindStringSubmatch(line)[1]
		case inf.VersionName == "" && reGradleVersion.MatchString(line):
			inf.VersionName = reGradleVersion.FindStringSubmatch(line)[1]
		}
	}
	inf.Package = firstNonEmpty(inf.Package, appID)
	if inf.Package == "" {
		return Info{}, false
	}
	return inf, true
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
