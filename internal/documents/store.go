package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/geocoder89/avajson/internal/domain/document"
	"github.com/geocoder89/avajson/internal/observability"
)

// Ext is the fixed extension of every servable document.
const Ext = ".json"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentParse    = errors.New("document is not valid JSON")
	ErrInvalidName      = errors.New("invalid document name")
)

// FileStore serves <baseDir>/<name><ext> files.
type FileStore struct {
	baseDir string
	ext     string
	io      observability.IOObserver
}

func NewFileStore(baseDir, ext string, obs observability.IOObserver) *FileStore {
	if obs == nil {
		obs = observability.NopIO{}
	}

	return &FileStore{baseDir: baseDir, ext: ext, io: obs}
}

func (s *FileStore) BaseDir() string {
	return s.baseDir
}

// Path is where the document called name lives on disk.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.baseDir, name+s.ext)
}

func (s *FileStore) Load(ctx context.Context, name string) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return document.Document{}, err
	}

	// callers allow-list names first; this only keeps the store safe on its own
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return document.Document{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	var body json.RawMessage

	err := s.io.ObserveIO("document_load", func() error {
		data, err := os.ReadFile(s.Path(name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s%s: %w", ErrDocumentNotFound, name, s.ext, err)
			}
			return fmt.Errorf("read document %s: %w", name, err)
		}

		var probe json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return fmt.Errorf("%w: %s%s: %w", ErrDocumentParse, name, s.ext, err)
		}

		// the file bytes, surrounding whitespace included, are what gets served
		body = data
		return nil
	})

	if err != nil {
		return document.Document{}, err
	}

	return document.Document{Name: name, Body: body}, nil
}

// List returns the sorted names (extension stripped) of every regular file in
// the base directory carrying the document extension.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string

	err := s.io.ObserveIO("document_list", func() error {
		entries, err := os.ReadDir(s.baseDir)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}

		names = make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), s.ext) {
				continue
			}

			name := strings.TrimSuffix(e.Name(), s.ext)
			if name == "" {
				continue
			}
			names = append(names, name)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}
