// Package tenant provides tenant identity resolution, validation, and
// context carriage.
//
// A tenant is the isolation boundary for all stored data: vector
// collections, escalation logs, themes, and uploaded files. The tenant
// identifier is taken from the request's API key, so it MUST be
// validated before it is used to derive collection names or storage
// paths. Identifiers that fail validation are rejected - fail closed.
package tenant

import (
	"context"
	"errors"
	"regexp"
)

// Sentinel errors for tenant resolution.
var (
	// ErrMissingTenant is returned when no tenant is present in context
	// or the API key is empty.
	ErrMissingTenant = errors.New("tenant missing")

	// ErrInvalidID is returned when a tenant identifier fails validation.
	ErrInvalidID = errors.New("invalid tenant identifier")
)

// testAPIKey maps to a well-known tenant for integration testing.
const (
	testAPIKey   = "test-key"
	testTenantID = "test-tenant"
)

// idPattern restricts tenant IDs to filesystem- and collection-safe
// characters. This closes the injection risk of deriving storage keys
// from raw header values (e.g. "../other" or "a/tenant_b").
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ID is a validated tenant identifier.
type ID string

// String returns the identifier as a plain string.
func (id ID) String() string { return string(id) }

// Collection returns the vector store collection name owned by this
// tenant. One collection per tenant, named tenant_{id}.
func (id ID) Collection() string { return "tenant_" + string(id) }

// Parse validates a raw identifier and returns it as an ID.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return "", ErrMissingTenant
	}
	if !idPattern.MatchString(raw) {
		return "", ErrInvalidID
	}
	return ID(raw), nil
}

// FromAPIKey resolves an API key value to a tenant ID.
//
// The API key is used directly as the tenant identifier. The well-known
// test key maps to a fixed test tenant.
func FromAPIKey(key string) (ID, error) {
	if key == testAPIKey {
		return testTenantID, nil
	}
	return Parse(key)
}

// contextKey avoids collisions with other packages' context values.
type contextKey struct{}

// NewContext returns a context carrying the tenant ID.
func NewContext(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the tenant ID from a context.
// Returns ErrMissingTenant if not present - fail closed.
func FromContext(ctx context.Context) (ID, error) {
	id, ok := ctx.Value(contextKey{}).(ID)
	if !ok || id == "" {
		return "", ErrMissingTenant
	}
	return id, nil
}
