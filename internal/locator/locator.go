package locator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// StoriesPattern selects the raw story files the GWT compiler writes when SOYC is enabled.
const StoriesPattern = "**/soycReport/stories0.xml.gz"

const (
	storiesToken      = "stories"
	dependenciesToken = "dependencies"
	splitPointsToken  = "splitPoints"
)

// ErrNoModuleSegment is returned when a matched path has no leading module directory.
var ErrNoModuleSegment = errors.New("matched path has no module segment")

// Match is a single stories file found beneath the scan root.
type Match struct {
	// Path is slash separated and relative to the scan root.
	Path   string
	Module string
}

// Inputs holds the three data files consumed by the dashboard for one module.
type Inputs struct {
	Stories      string
	Dependencies string
	SplitPoints  string
}

// Files returns the inputs in the order the dashboard expects them on its command line.
func (in Inputs) Files() []string {
	return []string{in.Stories, in.Dependencies, in.SplitPoints}
}

// Locate returns every stories file under root in lexical order.
// A missing root yields no matches and no error.
func Locate(root string) ([]Match, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	return LocateFS(os.DirFS(root))
}

// LocateFS is Locate over an arbitrary file system.
func LocateFS(fsys fs.FS) ([]Match, error) {
	paths, err := doublestar.Glob(fsys, StoriesPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", StoriesPattern, err)
	}
	sort.Strings(paths)

	matches := make([]Match, 0, len(paths))
	for _, p := range paths {
		module, err := ModuleFromPath(p)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Match{Path: p, Module: module})
	}
	return matches, nil
}

// ModuleFromPath returns the first segment of a slash separated relative path.
func ModuleFromPath(p string) (string, error) {
	idx := strings.IndexByte(p, '/')
	if idx <= 0 {
		return "", fmt.Errorf("%w: %q", ErrNoModuleSegment, p)
	}
	return p[:idx], nil
}

// DeriveInputs resolves the absolute stories file for a match and its two siblings.
// Only the file name is rewritten, so directories containing "stories" are left alone.
func DeriveInputs(root string, m Match) (Inputs, error) {
	abs, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(m.Path)))
	if err != nil {
		return Inputs{}, fmt.Errorf("resolve %s: %w", m.Path, err)
	}

	dir, base := filepath.Split(abs)
	if !strings.Contains(base, storiesToken) {
		return Inputs{}, fmt.Errorf("%s is not a stories file", m.Path)
	}

	sibling := func(token string) string {
		return dir + strings.Replace(base, storiesToken, token, 1)
	}

	return Inputs{
		Stories:      abs,
		Dependencies: sibling(dependenciesToken),
		SplitPoints:  sibling(splitPointsToken),
	}, nil
}
