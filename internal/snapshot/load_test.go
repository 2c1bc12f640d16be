package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	semerrors "semcheck/internal/errors"
)

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path       string
		format     Format
		compressed bool
		wantErr    bool
	}{
		{"a.json", FormatJSON, false, false},
		{"a.YAML", FormatYAML, false, false},
		{"dir/a.yml.zst", FormatYAML, true, false},
		{"a.msgpack.zst", FormatMsgpack, true, false},
		{"a.txt", "", false, true},
		{"a.zst", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, compressed, err := FormatForPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatForPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if format != tt.format || compressed != tt.compressed {
				t.Errorf("FormatForPath() = %q,%v, want %q,%v", format, compressed, tt.format, tt.compressed)
			}
		})
	}
}

func TestLoadYAMLFixture(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "basic.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Crate != "krate" || s.Version != "1.0.0" || s.Len() != 6 {
		t.Fatalf("Load() = %s %s with %d items", s.Crate, s.Version, s.Len())
	}

	foo, ok := s.Item("krate::Foo")
	if !ok {
		t.Fatal("krate::Foo not found")
	}
	if got := ParseRepr(foo.Attrs.Repr).String(); got != "C, align(8)" {
		t.Errorf("repr = %q", got)
	}
	if foo.Attrs.Deprecated == nil || foo.Attrs.Deprecated.Message != "use Bar" {
		t.Errorf("deprecated = %+v", foo.Attrs.Deprecated)
	}

	x, _ := s.Item("krate::Foo::x")
	if x.Type == nil || x.Type.Repr != "u32" {
		t.Errorf("scalar type shorthand not decoded: %+v", x.Type)
	}

	bar, _ := s.Item("krate::inner::bar")
	params := bar.Signature.Params
	if len(params) != 2 || params[0].Type.Repr != "i32" || !reflect.DeepEqual(params[1].Type.Refs, []ID{"krate::Foo"}) {
		t.Errorf("params = %+v", params)
	}

	if got := len(s.Impls("krate::Foo")); got != 1 {
		t.Errorf("Impls() = %d, want 1", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	orig, err := Load(filepath.Join("testdata", "basic.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	for _, name := range []string{"s.json", "s.yaml", "s.msgpack", "s.json.zst", "s.msgpack.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(path, orig); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got.Items, orig.Items) {
				t.Errorf("round trip through %s changed items", name)
			}
			if got.Crate != orig.Crate || got.Root != orig.Root {
				t.Errorf("round trip header = %s/%s", got.Crate, got.Root)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"crate":"k","root":"missing","items":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		code semerrors.ErrorCode
	}{
		{"missing file", filepath.Join(dir, "nope.json"), semerrors.SnapshotUnreadable},
		{"invalid index", bad, semerrors.SnapshotInvalid},
		{"unknown extension", filepath.Join(dir, "x.txt"), semerrors.SnapshotInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			var se *semerrors.SemcheckError
			if !errors.As(err, &se) {
				t.Fatalf("Load() error = %v, want *SemcheckError", err)
			}
			if se.Code != tt.code {
				t.Errorf("Code = %s, want %s", se.Code, tt.code)
			}
			details, _ := se.Details.(map[string]string)
			if details["path"] != tt.path {
				t.Errorf("Details = %v, want path %s", se.Details, tt.path)
			}
		})
	}
}

func TestDecodeJSONTypeShorthand(t *testing.T) {
	in := `{"crate":"k","version":"1.0.0","root":"k","items":[
		{"id":"k","name":"k","kind":"module","visibility":"public","children":["k::C"]},
		{"id":"k::C","name":"C","kind":"constant","visibility":"public","parent":"k","type":"usize"}]}`
	s, err := Decode(strings.NewReader(in), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := s.Item("k::C")
	if c.Type.Repr != "usize" {
		t.Errorf("Type = %+v", c.Type)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteSnapshotCompressedErrors(t *testing.T) {
	snap := &Snapshot{Crate: "krate", Version: "1.0.0", Root: "krate",
		Items: []*Item{{ID: "krate", Name: "krate", Kind: KindModule, Visibility: Public}}}

	var buf bytes.Buffer
	err := writeSnapshot(&buf, snap, Format("toml"), true)
	if err == nil || !strings.Contains(err.Error(), "unknown snapshot format") {
		t.Errorf("writeSnapshot(unknown format) error = %v", err)
	}

	if err := writeSnapshot(failingWriter{}, snap, FormatJSON, true); err == nil {
		t.Error("writeSnapshot() to a failing writer should return the flush error")
	}

	buf.Reset()
	if err := writeSnapshot(&buf, snap, FormatJSON, true); err != nil {
		t.Fatalf("writeSnapshot() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("compressed stream was not flushed")
	}
}
