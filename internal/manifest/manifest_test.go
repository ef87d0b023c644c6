package manifest

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeJar(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	input := "Manifest-Version: 1.0\r\n" +
		"Bundle-SymbolicName: com.example.a;singleton:=true\r\n" +
		"Bundle-Version: 1.0.0\r\n" +
		"Require-Bundle: org.a;bundle-version=\"[1.0,2.0)\",org.\r\n" +
		" b;resolution:=optional\r\n" +
		"\r\n" +
		"Name: per-entry\r\n" +
		"Ignored: yes\r\n"

	h, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Headers{
		"Manifest-Version":    "1.0",
		"Bundle-SymbolicName": "com.example.a;singleton:=true",
		"Bundle-Version":      "1.0.0",
		"Require-Bundle":      "org.a;bundle-version=\"[1.0,2.0)\",org.b;resolution:=optional",
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"continuation first", " dangling\n"},
		{"no colon", "Bundle-SymbolicName\n"},
		{"empty name", ": value\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Parse(%q) expected error", tt.input)
			}
		})
	}
}

func TestHeaders_CaseInsensitive(t *testing.T) {
	t.Parallel()

	h := Headers{"bundle-symbolicname": "x"}
	if got := h.Get(BundleSymbolicName); got != "x" {
		t.Errorf("Get() = %q, want %q", got, "x")
	}
	if !h.Has("BUNDLE-SYMBOLICNAME") {
		t.Error("Has() = false, want true")
	}
	if h.Has(BundleVersion) {
		t.Error("Has(Bundle-Version) = true, want false")
	}
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	elems, err := ParseHeader(`org.a;bundle-version="[1.0,2.0)";visibility:=reexport, org.b;org.c`)
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}

	want := []Element{
		{
			Values:     []string{"org.a"},
			Attributes: map[string]string{"bundle-version": "[1.0,2.0)"},
			Directives: map[string]string{"visibility": "reexport"},
		},
		{
			Values:     []string{"org.b", "org.c"},
			Attributes: map[string]string{},
			Directives: map[string]string{},
		},
	}
	if diff := cmp.Diff(want, elems); diff != "" {
		t.Errorf("ParseHeader() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHeader_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"a;;b", "a;x=1;b", "x=1"} {
		if _, err := ParseHeader(in); err == nil {
			t.Errorf("ParseHeader(%q) expected error", in)
		}
	}
}

func TestSymbolicNameAndVersion(t *testing.T) {
	t.Parallel()

	h := Headers{
		BundleSymbolicName: "com.example.a; singleton:=true",
		BundleVersion:      "1.0.0.qualifier",
	}
	name, err := SymbolicName(h)
	if err != nil || name != "com.example.a" {
		t.Errorf("SymbolicName() = %q, %v, want %q", name, err, "com.example.a")
	}
	v, err := Version(h)
	if err != nil || v != "1.0.0.qualifier" {
		t.Errorf("Version() = %q, %v, want %q", v, err, "1.0.0.qualifier")
	}

	name, err = SymbolicName(Headers{})
	if err != nil || name != "" {
		t.Errorf("SymbolicName(empty) = %q, %v, want empty", name, err)
	}
}

func TestReader_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "META-INF", "MANIFEST.MF"),
		"Bundle-SymbolicName: com.example.a\nBundle-Version: 2.0.0\n")

	h, err := NewReader().Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := h.Get(BundleVersion); got != "2.0.0" {
		t.Errorf("Bundle-Version = %q, want %q", got, "2.0.0")
	}
}

func TestReader_Archive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jar := filepath.Join(dir, "com.example.b_1.0.0.jar")
	writeJar(t, jar, map[string]string{
		"META-INF/MANIFEST.MF": "Bundle-SymbolicName: com.example.b\nBundle-Version: 1.0.0\n",
		"com/example/B.class":  "",
	})

	h, err := NewReader().Read(jar)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := h.Get(BundleSymbolicName); got != "com.example.b" {
		t.Errorf("Bundle-SymbolicName = %q, want %q", got, "com.example.b")
	}
}

func TestReader_NoManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stray := filepath.Join(dir, "readme.txt")
	writeFile(t, stray, "not a bundle")

	emptyJar := filepath.Join(dir, "empty.jar")
	writeJar(t, emptyJar, map[string]string{"a.txt": "x"})

	plainDir := filepath.Join(dir, "plain")
	if err := os.Mkdir(plainDir, 0755); err != nil {
		t.Fatal(err)
	}

	r := NewReader()
	for _, root := range []string{stray, emptyJar, plainDir} {
		if _, err := r.Read(root); !errors.Is(err, ErrNoManifest) {
			t.Errorf("Read(%s) error = %v, want ErrNoManifest", filepath.Base(root), err)
		}
	}
}

func TestReader_LegacyPlugin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "plugin.xml"), `<?xml version="1.0"?>
<plugin id="org.legacy" version="3.0.0" name="Legacy">
  <runtime><library name="legacy.jar"/></runtime>
  <requires>
    <import plugin="org.core" version="3.0.0"/>
    <import plugin="org.ui" optional="true"/>
  </requires>
</plugin>`)

	h, err := NewReader().Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := Headers{
		BundleManifestVersion: "2",
		BundleSymbolicName:    "org.legacy",
		BundleVersion:         "3.0.0",
		BundleName:            "Legacy",
		BundleClassPath:       "legacy.jar",
		RequireBundle:         `org.core;bundle-version="3.0.0",org.ui;resolution:=optional`,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestReader_LegacyFragment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fragment.xml"),
		`<fragment id="org.frag" version="1.0.0" plugin-id="org.host" plugin-version="1.0.0"/>`)

	h, err := NewReader().Read(dir)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := h.Get(FragmentHost); got != `org.host;bundle-version="1.0.0"` {
		t.Errorf("Fragment-Host = %q", got)
	}
}

func TestReader_LegacyDisabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "plugin.xml"), `<plugin id="org.legacy" version="1.0.0"/>`)

	r := &Reader{}
	if _, err := r.Read(dir); !errors.Is(err, ErrNoManifest) {
		t.Errorf("Read() error = %v, want ErrNoManifest", err)
	}
}

func TestPluginConverter_NoID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "plugin.xml"), `<plugin><extension point="x"/></plugin>`)

	if _, err := (PluginConverter{}).Convert(dir); !errors.Is(err, ErrNoManifest) {
		t.Errorf("Convert() error = %v, want ErrNoManifest", err)
	}
}
