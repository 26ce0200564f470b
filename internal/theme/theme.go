// Package theme stores per-tenant widget theme blobs.
package theme

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/assistantd/internal/jsonfile"
	"github.com/fyrsmithlabs/assistantd/internal/tenant"
	"go.uber.org/zap"
)

// Default is the theme served for tenants that never saved one.
func Default() map[string]any {
	return map[string]any{
		"primaryColor":   "#007bff",
		"secondaryColor": "#6c757d",
		"fontFamily":     "Arial, sans-serif",
	}
}

// Store persists one theme JSON file per tenant.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a theme store rooted at dir.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("theme directory required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating theme directory: %w", err)
	}
	return &Store{dir: dir, logger: logger.Named("theme")}, nil
}

func (s *Store) path(id tenant.ID) string {
	return filepath.Join(s.dir, fmt.Sprintf("theme_%s.json", id))
}

// Save persists a tenant's theme.
func (s *Store) Save(id tenant.ID, theme map[string]any) error {
	if err := jsonfile.WriteAtomic(s.path(id), theme); err != nil {
		return fmt.Errorf("saving theme for tenant %s: %w", id, err)
	}
	return nil
}

// Get returns a tenant's theme, or the default theme when none is
// stored or the stored file is unreadable.
func (s *Store) Get(id tenant.ID) map[string]any {
	var theme map[string]any
	if err := jsonfile.Read(s.path(id), &theme); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read stored theme, serving default",
				zap.String("tenant", id.String()),
				zap.Error(err),
			)
		}
		return Default()
	}
	return theme
}
