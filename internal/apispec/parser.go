// Package apispec summarizes OpenAPI specification documents.
//
// Uploaded .json files are treated as candidate OpenAPI specs rather
// than knowledge documents: the parser extracts a compact summary
// (title, version, endpoint list) for display and stores it alongside
// the tenant's uploads.
package apispec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidJSON indicates the input is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON document")

	// ErrNotOpenAPI indicates valid JSON that is not an OpenAPI spec.
	ErrNotOpenAPI = errors.New("invalid OpenAPI specification format")
)

// Summary is a compact description of an OpenAPI specification.
type Summary struct {
	Title     string     `json:"title"`
	Version   string     `json:"version"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Endpoint describes one operation in the spec.
type Endpoint struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Parse extracts a summary from an OpenAPI specification document.
//
// The document must be valid JSON and carry the openapi, info, and
// paths keys. Missing titles, versions, or descriptions degrade to
// placeholder strings rather than errors.
func Parse(data []byte) (*Summary, error) {
	var spec map[string]json.RawMessage
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	for _, key := range []string{"openapi", "info", "paths"} {
		if _, ok := spec[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q key", ErrNotOpenAPI, key)
		}
	}

	var info struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(spec["info"], &info); err != nil {
		return nil, fmt.Errorf("%w: malformed info object", ErrNotOpenAPI)
	}

	var paths map[string]map[string]struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(spec["paths"], &paths); err != nil {
		return nil, fmt.Errorf("%w: malformed paths object", ErrNotOpenAPI)
	}

	summary := &Summary{
		Title:     orDefault(info.Title, "No title"),
		Version:   orDefault(info.Version, "No version"),
		Endpoints: []Endpoint{},
	}

	// Maps have no stable order; sort for deterministic output.
	urls := make([]string, 0, len(paths))
	for url := range paths {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	for _, url := range urls {
		methods := paths[url]
		names := make([]string, 0, len(methods))
		for m := range methods {
			names = append(names, m)
		}
		sort.Strings(names)

		for _, m := range names {
			details := methods[m]
			desc := details.Summary
			if desc == "" {
				desc = details.Description
			}
			summary.Endpoints = append(summary.Endpoints, Endpoint{
				Method:      strings.ToUpper(m),
				URL:         url,
				Description: orDefault(desc, "No description"),
			})
		}
	}

	return summary, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
