package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var ErrPageNotFound = errors.New("page not found")

// Pages is an immutable in-memory set of static files keyed by their
// slash-separated path relative to the directory they were loaded from.
type Pages struct {
	files map[string][]byte
}

// LoadPages reads every regular file under dir matching the doublestar pattern.
func LoadPages(dir, pattern string) (*Pages, error) {
	return LoadPagesFS(os.DirFS(dir), pattern)
}

// LoadPagesFS is LoadPages over an arbitrary file system.
func LoadPagesFS(fsys fs.FS, pattern string) (*Pages, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid page pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob pages: %w", err)
	}

	files := make(map[string][]byte, len(matches))
	for _, name := range matches {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %s: %w", name, err)
		}
		files[name] = body
	}
	return &Pages{files: files}, nil
}

// NewPages builds a page set from literal contents.
func NewPages(files map[string][]byte) *Pages {
	copied := make(map[string][]byte, len(files))
	for name, body := range files {
		copied[name] = slices.Clone(body)
	}
	return &Pages{files: copied}
}

// Get returns the body of the named page.
func (p *Pages) Get(name string) ([]byte, error) {
	body, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, name)
	}
	return body, nil
}

func (p *Pages) Len() int {
	return len(p.files)
}

// Names returns the page names in lexical order.
func (p *Pages) Names() []string {
	names := make([]string, 0, len(p.files))
	for name := range p.files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
