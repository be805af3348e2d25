// Package registry reads the user registry: a JSON object keyed by user
// identifier whose values are {"pin": "..."} records. The file is edited by
// hand outside the service; nothing here ever writes it.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/geocoder89/avajson/internal/domain/user"
	"github.com/geocoder89/avajson/internal/observability"
)

type Loader interface {
	Load(ctx context.Context) (user.Registry, error)
}

// FileStore re-reads the registry file on every Load.
type FileStore struct {
	path string
	io   observability.IOObserver
}

func NewFileStore(path string, obs observability.IOObserver) *FileStore {
	if obs == nil {
		obs = observability.NopIO{}
	}

	return &FileStore{path: path, io: obs}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (user.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var reg user.Registry

	err := s.io.ObserveIO("registry_load", func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %w", ErrRegistryNotFound, err)
			}
			return fmt.Errorf("read registry: %w", err)
		}

		reg, err = Parse(data)
		return err
	})

	if err != nil {
		return nil, err
	}

	return reg, nil
}

// Exists reports whether the registry file is present, for readiness checks.
func (s *FileStore) Exists(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrRegistryNotFound, err)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrRegistryNotFound, s.path)
	}

	return nil
}

type record struct {
	PIN string `json:"pin"`
}

// Parse decodes registry bytes. Unknown record fields are ignored; a record
// without a pin is kept with an empty PIN and can never authenticate.
func Parse(data []byte) (user.Registry, error) {
	var raw map[string]record

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryParse, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top level value must be an object", ErrRegistryParse)
	}

	reg := make(user.Registry, len(raw))
	for id, rec := range raw {
		reg[id] = user.User{Identifier: id, PIN: rec.PIN}
	}

	return reg, nil
}

// Encode is the inverse of Parse, used for the shared cache.
func Encode(reg user.Registry) ([]byte, error) {
	raw := make(map[string]record, len(reg))
	for id, u := range reg {
		raw[id] = record{PIN: u.PIN}
	}

	return json.Marshal(raw)
}
