// Package files manages per-tenant uploaded file storage.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/assistantd/internal/tenant"
	"go.uber.org/zap"
)

// ErrInvalidName is returned for file names that could escape the
// tenant's upload directory.
var ErrInvalidName = errors.New("invalid file name")

// Info describes one stored file.
type Info struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Store keeps uploaded files under root/{tenant}/.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates a file store rooted at dir.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{root: dir, logger: logger.Named("files")}, nil
}

// sanitizeName rejects names with path separators or traversal.
func sanitizeName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// tenantDir returns the upload directory for a tenant.
func (s *Store) tenantDir(id tenant.ID) string {
	return filepath.Join(s.root, id.String())
}

// Save writes an uploaded file into the tenant's directory and returns
// its path.
func (s *Store) Save(id tenant.ID, name string, data []byte) (string, error) {
	clean, err := sanitizeName(name)
	if err != nil {
		return "", err
	}

	dir := s.tenantDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating tenant directory: %w", err)
	}

	path := filepath.Join(dir, clean)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	s.logger.Debug("saved upload",
		zap.String("tenant", id.String()),
		zap.String("file", clean),
		zap.Int("size", len(data)),
	)

	return path, nil
}

// Remove deletes a stored file. Removing an absent file is not an error.
func (s *Store) Remove(id tenant.ID, name string) error {
	clean, err := sanitizeName(name)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.tenantDir(id), clean))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

// List returns the tenant's stored files. An absent tenant directory
// yields an empty list, not an error.
func (s *Store) List(id tenant.ID) ([]Info, error) {
	entries, err := os.ReadDir(s.tenantDir(id))
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("listing tenant directory: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("reading file info: %w", err)
		}
		infos = append(infos, Info{Name: entry.Name(), Size: fi.Size()})
	}
	return infos, nil
}
