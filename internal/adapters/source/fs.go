package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/okian/lodge/internal/domain/model"
)

// DefaultExtensions are the file extensions FS reads.
var DefaultExtensions = []string{".md", ".markdown"}

// FSOption configures an FS source.
type FSOption func(*FS)

// WithExtensions limits which files are read. Extensions include the dot.
func WithExtensions(exts ...string) FSOption {
	return func(f *FS) {
		if len(exts) > 0 {
			f.exts = exts
		}
	}
}

// FS reads each category from the directory of the same name inside an
// fs.FS, recursively. Filenames are reported relative to the root, e.g.
// "events/pfs-night.md".
type FS struct {
	fsys fs.FS
	exts []string
}

// NewFS creates a Source over fsys.
func NewFS(fsys fs.FS, opts ...FSOption) *FS {
	f := &FS{fsys: fsys, exts: DefaultExtensions}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewDir creates a Source over a directory on disk.
func NewDir(dir string, opts ...FSOption) *FS {
	return NewFS(os.DirFS(dir), opts...)
}

// Online reports whether the root of the filesystem can be read. A content
// directory that was unmounted or removed reports false.
func (f *FS) Online() bool {
	_, err := fs.ReadDir(f.fsys, ".")
	return err == nil
}

// Fetch walks the category directory in lexical order.
func (f *FS) Fetch(ctx context.Context, c model.Category) ([]model.RawRecord, error) {
	root := string(c)
	if _, err := fs.Stat(f.fsys, root); err != nil {
		if !f.Online() {
			return nil, fmt.Errorf("%w: %w", ErrOffline, err)
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryUnavailable, c)
		}
		return nil, fmt.Errorf("stat %s: %w", c, err)
	}

	var out []model.RawRecord
	err := fs.WalkDir(f.fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !f.wanted(p) {
			return nil
		}
		b, err := fs.ReadFile(f.fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		out = append(out, model.RawRecord{Filename: p, Content: string(b)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *FS) wanted(p string) bool {
	base := path.Base(p)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") {
		return false
	}
	ext := strings.ToLower(path.Ext(base))
	for _, e := range f.exts {
		if ext == e {
			return true
		}
	}
	return false
}
