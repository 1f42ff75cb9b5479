// Package gwtmodule reads GWT module descriptors (*.gwt.xml) from project source roots.
package gwtmodule

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DescriptorSuffix is appended to a module path to form its descriptor file name.
const DescriptorSuffix = ".gwt.xml"

const descriptorPattern = "**/*" + DescriptorSuffix

// ErrModuleNotFound is returned when no source root contains the requested descriptor.
var ErrModuleNotFound = errors.New("gwt module descriptor not found")

// Module is a parsed module descriptor.
type Module struct {
	Name        string
	RenameTo    string
	Path        string
	Inherits    []string
	EntryPoints []string
}

// OutputName is the directory name the GWT compiler writes this module to.
func (m Module) OutputName() string {
	if m.RenameTo != "" {
		return m.RenameTo
	}
	return m.Name
}

// Reader lists and loads module descriptors.
type Reader interface {
	ModuleNames() ([]string, error)
	ReadModule(name string) (Module, error)
}

// DefaultReader resolves modules from explicit declarations or by scanning source roots.
type DefaultReader struct {
	SourceRoots []string
	Declared    []string
}

// ModuleNames returns the declared modules, or every descriptor found under the source roots.
func (r DefaultReader) ModuleNames() ([]string, error) {
	if len(r.Declared) > 0 {
		return dedupe(r.Declared), nil
	}

	var names []string
	for _, root := range r.SourceRoots {
		found, err := scanRoot(root)
		if err != nil {
			return nil, err
		}
		names = append(names, found...)
	}
	return dedupe(names), nil
}

// ReadModule loads the descriptor for a dotted module name.
func (r DefaultReader) ReadModule(name string) (Module, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/")) + DescriptorSuffix
	for _, root := range r.SourceRoots {
		path := filepath.Join(root, rel)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return parseFile(name, path)
	}
	return Module{}, fmt.Errorf("%w: %s (searched %s)", ErrModuleNotFound, name, strings.Join(r.SourceRoots, ", "))
}

// ReadAll loads every module the reader knows about. Any failure aborts the whole read.
func ReadAll(r Reader) ([]Module, error) {
	names, err := r.ModuleNames()
	if err != nil {
		return nil, fmt.Errorf("list gwt modules: %w", err)
	}

	modules := make([]Module, 0, len(names))
	for _, name := range names {
		m, err := r.ReadModule(name)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

type descriptor struct {
	XMLName     xml.Name `xml:"module"`
	RenameTo    string   `xml:"rename-to,attr"`
	Inherits    []named  `xml:"inherits"`
	EntryPoints []class  `xml:"entry-point"`
}

type named struct {
	Name string `xml:"name,attr"`
}

type class struct {
	Class string `xml:"class,attr"`
}

func parseFile(name, path string) (Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Module{}, fmt.Errorf("read gwt module %s: %w", name, err)
	}

	var d descriptor
	if err := xml.Unmarshal(data, &d); err != nil {
		return Module{}, fmt.Errorf("parse gwt module %s (%s): %w", name, path, err)
	}

	m := Module{
		Name:     name,
		RenameTo: strings.TrimSpace(d.RenameTo),
		Path:     path,
	}
	for _, in := range d.Inherits {
		if in.Name != "" {
			m.Inherits = append(m.Inherits, in.Name)
		}
	}
	for _, ep := range d.EntryPoints {
		if ep.Class != "" {
			m.EntryPoints = append(m.EntryPoints, ep.Class)
		}
	}
	return m, nil
}

func scanRoot(root string) ([]string, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", root)
	}

	paths, err := doublestar.Glob(os.DirFS(root), descriptorPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan %s for gwt modules: %w", root, err)
	}
	sort.Strings(paths)

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, strings.ReplaceAll(strings.TrimSuffix(p, DescriptorSuffix), "/", "."))
	}
	return names, nil
}

func dedupe(values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
