package meta

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestDetectManifest(t *testing.T) {
	fsys := fstest.MapFS{
		ManifestFile: {Data: []byte(`<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android"
    package="com.example.demo" android:versionName="1.2.0">
  <uses-sdk android:minSdkVersion="21" android:targetSdkVersion="34"/>
</manifest>`)},
		"build.gradle": {Data: []byte(`namespace "com.example.ignored"`)},
	}
	inf := Detect(fsys)
	assert.Equal(t, Info{
		Source:      "manifest",
		Package:     "com.example.demo",
		MinSDK:      "21",
		TargetSDK:   "34",
		VersionName: "1.2.0",
	}, inf)
	assert.Equal(t, "com.example.demo", PackageName(fsys))
}

func TestDetectGradleFallback(t *testing.T) {
	fsys := fstest.MapFS{
		ManifestFile: {Data: []byte(`<manifest/>`)},
		"build.gradle.kts": {Data: []byte(`android {
    namespace = "com.example.lib"
    defaultConfig {
        minSdk = 23
        targetSdk = 34
        versionName = "2.0"
    }
}`)},
	}
	inf := Detect(fsys)
	assert.Equal(t, "gradle", inf.Source)
	assert.Equal(t, "com.example.lib", inf.Package)
	assert.Equal(t, "23", inf.MinSDK)
	assert.Equal(t, "34", inf.TargetSDK)
	assert.Equal(t, "2.0", inf.VersionName)
}

func TestDetectApplicationID(t *testing.T) {
	fsys := fstest.MapFS{
		"build.gradle": {Data: []byte("    applicationId 'com.example.app'\n    minSdkVersion 19\n")},
	}
	assert.Equal(t, "com.example.app", PackageName(fsys))
}

func TestDetectUnknown(t *testing.T) {
	assert.Equal(t, Info{}, Detect(fstest.MapFS{}))
	assert.Empty(t, PackageName(fstest.MapFS{ManifestFile: {Data: []byte("<not-xml")}}))
}
