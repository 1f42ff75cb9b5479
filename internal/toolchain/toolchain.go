// Package toolchain locates the GWT support libraries the SOYC dashboard needs on its classpath.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DevJarPattern matches the gwt-dev jar inside a GWT distribution.
const DevJarPattern = "**/gwt-dev*.jar"

// ErrNoSupportLibrary is returned when neither an explicit jar nor a distribution home is configured.
var ErrNoSupportLibrary = errors.New("no GWT support library configured; set gwtDevJar or gwtHome")

// Resolver produces the classpath entries required to run the dashboard.
type Resolver interface {
	Classpath(ctx context.Context) ([]string, error)
}

// Settings selects how the support library is found.
type Settings struct {
	DevJar string
	Home   string
	Extra  []string
}

// NewResolver picks a resolver for the given settings.
func NewResolver(s Settings) (Resolver, error) {
	switch {
	case s.DevJar != "":
		return StaticResolver{Paths: append([]string{s.DevJar}, s.Extra...)}, nil
	case s.Home != "":
		return DistributionResolver{Home: s.Home, Extra: s.Extra}, nil
	default:
		return nil, ErrNoSupportLibrary
	}
}

// StaticResolver returns configured paths after checking they exist.
type StaticResolver struct {
	Paths []string
}

// Classpath implements Resolver.
func (r StaticResolver) Classpath(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return absExisting(r.Paths)
}

// DistributionResolver searches a GWT distribution directory for gwt-dev.
type DistributionResolver struct {
	Home  string
	Extra []string
}

// Classpath implements Resolver. When several jars match, the lexically last one wins.
func (r DistributionResolver) Classpath(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found, err := doublestar.Glob(os.DirFS(r.Home), DevJarPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("search %s for gwt-dev: %w", r.Home, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("gwt-dev jar not found under %s", r.Home)
	}
	sort.Strings(found)

	devJar := filepath.Join(r.Home, filepath.FromSlash(found[len(found)-1]))
	return absExisting(append([]string{devJar}, r.Extra...))
}

func absExisting(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve classpath entry %s: %w", p, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("classpath entry %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
