package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FS reads sources from a filesystem. Relative paths are taken from Root.
type FS struct {
	fs   afero.Fs
	root string
}

// NewFS returns a fetcher over fsys rooted at root. A nil fsys selects the
// OS filesystem.
func NewFS(fsys afero.Fs, root string) *FS {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FS{fs: fsys, root: root}
}

// Fetch reads the file named by url, which may carry a file:// prefix.
func (f *FS) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := strings.TrimPrefix(url, "file://")
	if f.root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.root, path)
	}

	file, err := f.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("open %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return readLimited(file, path)
}
