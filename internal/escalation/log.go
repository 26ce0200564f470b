// Package escalation records chat exchanges flagged for human
// follow-up.
//
// Each tenant owns one ordered log, persisted as a JSON file. Appends
// are serialized per tenant and written atomically (temp file + rename)
// so concurrent escalating chats cannot lose updates.
package escalation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fyrsmithlabs/assistantd/internal/tenant"
	"go.uber.org/zap"
)

// ErrCorrupted is returned when a tenant's log file holds malformed
// JSON. An absent file is a normal outcome (empty log), not an error.
var ErrCorrupted = errors.New("escalation log corrupted")

// Record is one escalated chat exchange.
type Record struct {
	Message  string `json:"message"`
	Response string `json:"response"`
	Date     string `json:"date"`
}

// timeNow is a variable for testing purposes.
var timeNow = time.Now

// Log persists per-tenant escalation records.
type Log struct {
	dir    string
	logger *zap.Logger

	mu      sync.Mutex
	tenants map[tenant.ID]*sync.Mutex
}

// NewLog creates an escalation log rooted at dir.
func NewLog(dir string, logger *zap.Logger) (*Log, error) {
	if dir == "" {
		return nil, fmt.Errorf("escalation directory required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating escalation directory: %w", err)
	}
	return &Log{
		dir:     dir,
		logger:  logger.Named("escalation"),
		tenants: map[tenant.ID]*sync.Mutex{},
	}, nil
}

// tenantMu returns the mutex serializing writes for one tenant.
func (l *Log) tenantMu(id tenant.ID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, ok := l.tenants[id]
	if !ok {
		mu = &sync.Mutex{}
		l.tenants[id] = mu
	}
	return mu
}

// path returns the log file for a tenant.
func (l *Log) path(id tenant.ID) string {
	return filepath.Join(l.dir, fmt.Sprintf("esc_%s.json", id))
}

// Append adds a record to the tenant's log. The record's date is set
// if empty. Read-modify-write is serialized per tenant and the file is
// replaced atomically.
func (l *Log) Append(id tenant.ID, rec Record) error {
	if rec.Date == "" {
		rec.Date = timeNow().Format(time.RFC3339)
	}

	mu := l.tenantMu(id)
	mu.Lock()
	defer mu.Unlock()

	records, err := l.read(id)
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling escalations: %w", err)
	}

	path := l.path(id)
	tmp, err := os.CreateTemp(l.dir, "esc_*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing escalations: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing escalation log: %w", err)
	}

	l.logger.Info("escalation recorded",
		zap.String("tenant", id.String()),
		zap.Int("total", len(records)),
	)

	return nil
}

// List returns the tenant's records in append order. An absent file
// yields an empty list; a malformed file yields ErrCorrupted.
func (l *Log) List(id tenant.ID) ([]Record, error) {
	mu := l.tenantMu(id)
	mu.Lock()
	defer mu.Unlock()
	return l.read(id)
}

// read loads the log file. Callers must hold the tenant mutex.
func (l *Log) read(id tenant.ID) ([]Record, error) {
	data, err := os.ReadFile(l.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("reading escalation log: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return records, nil
}
