package index

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/example/soyc-report/internal/gwtmodule"
)

const (
	DefaultTitle       = "GWT Story Of Your Compiler"
	DefaultDescription = "Compile reports generated by the SOYC dashboard, one per GWT module."
	entryPage          = "index.html"
)

var pageTemplate = template.Must(template.New("soyc").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h2>{{.Title}}</h2>
<p>{{.Description}}</p>
<ul>
{{- range .Entries}}
<li><a href="{{.Href}}">{{.Name}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

// Entry is a single module link on the index page.
type Entry struct {
	Name string
	Href string
}

// Entries builds one link per module pointing at <linkBase>/<output name>/index.html.
func Entries(modules []gwtmodule.Module, linkBase string) []Entry {
	entries := make([]Entry, 0, len(modules))
	for _, m := range modules {
		entries = append(entries, Entry{
			Name: m.Name,
			Href: path.Join(linkBase, m.OutputName(), entryPage),
		})
	}
	return entries
}

// Renderer writes the SOYC index page into a report sink.
type Renderer struct {
	Title       string
	Description string
}

// Render writes the page for entries to w.
func (r Renderer) Render(w io.Writer, entries []Entry) error {
	title := r.Title
	if title == "" {
		title = DefaultTitle
	}
	description := r.Description
	if description == "" {
		description = DefaultDescription
	}

	return pageTemplate.Execute(w, struct {
		Title       string
		Description string
		Entries     []Entry
	}{title, description, entries})
}

// WriteFile renders to memory and then replaces dest in one rename.
func (r Renderer) WriteFile(dest string, entries []Entry) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, entries); err != nil {
		return fmt.Errorf("render index: %w", err)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".soyc-index-*.html")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dest)
}
