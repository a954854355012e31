// Package file provides a filesystem-backed StateStore. Each principal's
// bag is one JSON file, written atomically.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/parleykit/parley/pkg/domain"
)

// Store implements ports.StateStore on the local filesystem. Principals map
// to files under BasePath; the principal string is percent-encoded so the
// ":" separator never reaches the filesystem.
type Store struct {
	BasePath string
}

// New creates a file store rooted at basePath.
// If basePath is empty, it defaults to ".parley/state".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".parley", "state")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(principal domain.Principal) string {
	return filepath.Join(s.BasePath, url.PathEscape(string(principal))+".json")
}

// Save persists the bag to a JSON file atomically: write to a temp file in
// the same directory, fsync, then rename over the destination.
func (s *Store) Save(ctx context.Context, principal domain.Principal, bag domain.StateBag) error {
	if principal == "" {
		return fmt.Errorf("principal cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("ensure state directory: %w", err)
	}

	data, err := json.MarshalIndent(bag, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state bag: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	destPath := s.path(principal)

	// os.Rename does not replace an existing destination on Windows, so an
	// existing file is removed first. The partial-write risk that matters
	// (truncated JSON) is already covered by the temp file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("remove existing state file: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load retrieves the bag from its JSON file.
func (s *Store) Load(ctx context.Context, principal domain.Principal) (domain.StateBag, error) {
	if principal == "" {
		return nil, fmt.Errorf("principal cannot be empty")
	}

	data, err := os.ReadFile(s.path(principal))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var bag domain.StateBag
	if err := json.Unmarshal(data, &bag); err != nil {
		return nil, fmt.Errorf("unmarshal state bag: %w", err)
	}
	return bag, nil
}

// Delete removes the principal's file. Deleting an absent principal is not
// an error.
func (s *Store) Delete(ctx context.Context, principal domain.Principal) error {
	if principal == "" {
		return fmt.Errorf("principal cannot be empty")
	}

	err := os.Remove(s.path(principal))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete state file: %w", err)
	}
	return nil
}

// List returns every principal that has a bag on disk.
func (s *Store) List(ctx context.Context) ([]domain.Principal, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Principal{}, nil
		}
		return nil, fmt.Errorf("list state files: %w", err)
	}

	var principals []domain.Principal
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		decoded, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		principals = append(principals, domain.Principal(decoded))
	}
	return principals, nil
}
