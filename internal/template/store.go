// Package template loads and caches reference images of UI elements.
//
// Templates are small crops of the target application's screen (a button,
// a field label, an arrow) stored as image files in a single directory.
// The set is fixed per session, so loaded templates are cached for the
// lifetime of the process with no eviction.
package template

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
)

var (
	// ErrNotFound means no image file backs the requested template name.
	ErrNotFound = errors.New("template not found")
	// ErrCorrupt means the backing image file exists but cannot be decoded.
	ErrCorrupt = errors.New("template image corrupt")
)

// Extensions tried, in order, when the template name has no extension.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp"}

// Template is an immutable reference image, decoded once and cached.
type Template struct {
	Name   string
	Width  int
	Height int

	// Mat holds the decoded pixels in BGR order.
	Mat gocv.Mat

	// Working is the variant the scanners search with. For templates whose
	// smaller dimension is under the upscale threshold it is a 2x cubic
	// upscale with denoising applied; otherwise it is a clone of Mat.
	// Low-resolution crops correlate poorly at native size.
	Working gocv.Mat
}

// Store loads templates by name from a directory and caches them.
// Safe for concurrent use.
type Store struct {
	dir          string
	upscaleBelow int

	mu    sync.Mutex
	cache map[string]*Template
}

// defaultUpscaleBelow is the smaller-dimension size under which a template
// gets an upscaled working copy.
const defaultUpscaleBelow = 100

// NewStore creates a template store backed by the given directory.
// upscaleBelow <= 0 selects the default threshold.
func NewStore(dir string, upscaleBelow int) *Store {
	if upscaleBelow <= 0 {
		upscaleBelow = defaultUpscaleBelow
	}
	return &Store{
		dir:          dir,
		upscaleBelow: upscaleBelow,
		cache:        make(map[string]*Template),
	}
}

// Get returns the template for name, loading and caching it on first use.
// Returns ErrNotFound if no backing file exists, ErrCorrupt if the file
// cannot be decoded.
func (s *Store) Get(name string) (*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tpl, ok := s.cache[name]; ok {
		return tpl, nil
	}

	path, err := s.resolvePath(name)
	if err != nil {
		return nil, err
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("decode %s: %w", path, ErrCorrupt)
	}

	tpl := &Template{
		Name:    name,
		Width:   mat.Cols(),
		Height:  mat.Rows(),
		Mat:     mat,
		Working: prepareWorking(mat, s.upscaleBelow),
	}
	s.cache[name] = tpl
	return tpl, nil
}

// Put registers an already-decoded template under name, replacing any cached
// entry. The store takes ownership of the Mat.
func (s *Store) Put(name string, mat gocv.Mat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.cache[name]; ok {
		old.close()
	}
	s.cache[name] = &Template{
		Name:    name,
		Width:   mat.Cols(),
		Height:  mat.Rows(),
		Mat:     mat,
		Working: prepareWorking(mat, s.upscaleBelow),
	}
}

// Close releases all cached template pixel buffers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tpl := range s.cache {
		tpl.close()
	}
	s.cache = make(map[string]*Template)
}

// Original returns the template pixels as decoded from disk.
func (t *Template) Original() gocv.Mat { return t.Mat }

// Search returns the working variant the scanners should search with.
func (t *Template) Search() gocv.Mat { return t.Working }

func (t *Template) close() {
	t.Working.Close()
	t.Mat.Close()
}

// resolvePath finds the image file backing a template name. Names may be
// given with or without an extension.
func (s *Store) resolvePath(name string) (string, error) {
	if filepath.Ext(name) != "" {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("template %q: %w", name, ErrNotFound)
	}

	for _, ext := range imageExtensions {
		path := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("template %q: %w", name, ErrNotFound)
}

// prepareWorking builds the search variant of a template. Small templates
// are upscaled 2x and denoised; the denoise pass knocks down the compression
// artifacts that dominate low-resolution crops.
func prepareWorking(mat gocv.Mat, upscaleBelow int) gocv.Mat {
	smaller := mat.Cols()
	if mat.Rows() < smaller {
		smaller = mat.Rows()
	}
	if smaller >= upscaleBelow {
		return mat.Clone()
	}

	upscaled := gocv.NewMat()
	gocv.Resize(mat, &upscaled, image.Pt(mat.Cols()*2, mat.Rows()*2), 0, 0, gocv.InterpolationCubic)

	denoised := gocv.NewMat()
	gocv.FastNlMeansDenoisingColored(upscaled, &denoised)
	upscaled.Close()
	return denoised
}
