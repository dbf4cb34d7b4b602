package resource

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ResourcesDir is the directory inside a package that holds its resources.
const ResourcesDir = "Resources"

// Loader opens the resource tree of a template package.
type Loader interface {
	Open(ctx context.Context, pkg string) (fs.FS, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, pkg string) (fs.FS, error)

// Open implements Loader.
func (f LoaderFunc) Open(ctx context.Context, pkg string) (fs.FS, error) {
	return f(ctx, pkg)
}

// ValidatePackage rejects ids that could escape the loader root.
func ValidatePackage(pkg string) error {
	if pkg == "" || pkg == "." || pkg == ".." || strings.ContainsAny(pkg, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidPackage, pkg)
	}
	return nil
}

// DirLoader loads packages from <root>/<package>/Resources.
type DirLoader struct {
	root string
}

// NewDirLoader creates a loader for packages installed under root.
func NewDirLoader(root string) *DirLoader {
	return &DirLoader{root: root}
}

// Open implements Loader.
func (l *DirLoader) Open(_ context.Context, pkg string) (fs.FS, error) {
	if err := ValidatePackage(pkg); err != nil {
		return nil, err
	}

	dir := filepath.Join(l.root, pkg, ResourcesDir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, pkg)
	}
	return os.DirFS(dir), nil
}

// MapLoader serves packages from in-memory trees. Each tree is already
// rooted at the package resources.
type MapLoader map[string]fs.FS

// Open implements Loader.
func (m MapLoader) Open(_ context.Context, pkg string) (fs.FS, error) {
	fsys, ok := m[pkg]
	if !ok || fsys == nil {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, pkg)
	}
	return fsys, nil
}
