// Package permission stores per-organization permission blobs.
package permission

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/assistantd/internal/jsonfile"
	"go.uber.org/zap"
)

// Store persists one permissions JSON file per organization.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a permission store rooted at dir.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("permission directory required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating permission directory: %w", err)
	}
	return &Store{dir: dir, logger: logger.Named("permission")}, nil
}

func (s *Store) path(orgID string) string {
	return filepath.Join(s.dir, orgID+".json")
}

// Save persists an organization's permissions. The orgID must already
// be validated by the caller (see tenant.Parse).
func (s *Store) Save(orgID string, permissions map[string]any) error {
	if err := jsonfile.WriteAtomic(s.path(orgID), permissions); err != nil {
		return fmt.Errorf("saving permissions for org %s: %w", orgID, err)
	}
	return nil
}

// Get returns an organization's permissions, or an empty map when none
// are stored.
func (s *Store) Get(orgID string) (map[string]any, error) {
	var permissions map[string]any
	if err := jsonfile.Read(s.path(orgID), &permissions); err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading permissions for org %s: %w", orgID, err)
	}
	return permissions, nil
}
