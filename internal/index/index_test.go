package index

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/soyc-report/internal/gwtmodule"
)

func TestEntriesOnePerModule(t *testing.T) {
	modules := []gwtmodule.Module{
		{Name: "modA"},
		{Name: "modB"},
		{Name: "com.example.App", RenameTo: "app"},
	}

	entries := Entries(modules, "soyc")
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	want := []Entry{
		{Name: "modA", Href: "soyc/modA/index.html"},
		{Name: "modB", Href: "soyc/modB/index.html"},
		{Name: "com.example.App", Href: "soyc/app/index.html"},
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], entries[i])
		}
	}
}

func TestEntriesEmptyLinkBase(t *testing.T) {
	entries := Entries([]gwtmodule.Module{{Name: "modA"}}, "")
	if entries[0].Href != "modA/index.html" {
		t.Fatalf("unexpected href %q", entries[0].Href)
	}
}

func TestRenderWritesLinks(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{
		{Name: "modA", Href: "soyc/modA/index.html"},
		{Name: "modB", Href: "soyc/modB/index.html"},
		{Name: "modC", Href: "soyc/modC/index.html"},
	}

	if err := (Renderer{}).Render(&buf, entries); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if got := strings.Count(out, "<li><a href="); got != 3 {
		t.Fatalf("expected 3 links, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, `<a href="soyc/modC/index.html">modC</a>`) {
		t.Fatalf("missing modC link:\n%s", out)
	}
	if !strings.Contains(out, DefaultTitle) {
		t.Fatalf("missing default title:\n%s", out)
	}
}

func TestRenderEscapesNames(t *testing.T) {
	var buf bytes.Buffer
	r := Renderer{Title: "Reports <internal>"}
	if err := r.Render(&buf, []Entry{{Name: "<script>", Href: "x/index.html"}}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Fatalf("module name should be escaped:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "Reports &lt;internal&gt;") {
		t.Fatalf("title should be escaped:\n%s", buf.String())
	}
}

func TestWriteFileReplacesPage(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "site", "soyc.html")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(dest, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := (Renderer{}).WriteFile(dest, []Entry{{Name: "modA", Href: "soyc/modA/index.html"}}); err != nil {
		t.Fatalf("write file: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "stale") || !strings.Contains(string(data), "modA") {
		t.Fatalf("unexpected page:\n%s", data)
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(dest), ".soyc-index-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}
