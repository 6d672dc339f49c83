// Package local resolves stored content filenames against a base directory
// on the local filesystem. Documents are additionally validated with pdfcpu
// so a corrupt file fails the run before any conversation is opened.
package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Resolver implements ports.ContentResolver over a single upload directory.
type Resolver struct {
	baseDir string
	pdfConf *model.Configuration
}

// New builds a Resolver rooted at baseDir.
func New(baseDir string) (*Resolver, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Resolver{baseDir: abs, pdfConf: conf}, nil
}

// ResolveMedia maps media filenames to absolute paths, verifying each exists.
func (r *Resolver) ResolveMedia(names []string) ([]string, error) {
	return r.resolve(names, nil)
}

// ResolveDocuments maps document filenames to absolute paths and validates
// each as a well-formed PDF.
func (r *Resolver) ResolveDocuments(names []string) ([]string, error) {
	return r.resolve(names, r.validatePDF)
}

func (r *Resolver) resolve(names []string, check func(string) error) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, err := r.safeJoin(name)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("content file %q: %w", name, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("content file %q is a directory", name)
		}
		if check != nil {
			if err := check(path); err != nil {
				return nil, err
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// safeJoin rejects names that would escape the upload directory.
func (r *Resolver) safeJoin(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty content filename")
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("content filename %q must not contain path separators", name)
	}
	return filepath.Join(r.baseDir, name), nil
}

func (r *Resolver) validatePDF(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("document %q is not a PDF", filepath.Base(path))
	}
	if err := api.ValidateFile(path, r.pdfConf); err != nil {
		return fmt.Errorf("invalid PDF %q: %w", filepath.Base(path), err)
	}
	return nil
}
