// Package ingest loads uploaded documents into a tenant's vector
// collection.
//
// The pipeline routes a file by extension to a type-appropriate text
// loader, splits the text into fixed-size overlapping chunks, and
// upserts the embedded chunks into the tenant's collection. The overlap
// lets retrieval match content spanning a chunk boundary.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/assistantd/internal/files"
	"github.com/fyrsmithlabs/assistantd/internal/tenant"
	"github.com/fyrsmithlabs/assistantd/internal/vectorstore"
)

var (
	// ErrUnsupportedType is returned for file extensions the pipeline
	// cannot load. Nothing is written in this case.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNoContent is returned when a supported file yields no text.
	ErrNoContent = errors.New("document contains no text")
)

// Config holds chunking parameters.
type Config struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared between adjacent
	// chunks.
	ChunkOverlap int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}
}

// Pipeline ingests uploaded documents for a tenant.
type Pipeline struct {
	store    vectorstore.Store
	uploads  *files.Store
	splitter textsplitter.RecursiveCharacter
	logger   *zap.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(store vectorstore.Store, uploads *files.Store, cfg Config, logger *zap.Logger) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if uploads == nil {
		return nil, fmt.Errorf("upload store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ApplyDefaults()
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
	)

	return &Pipeline{
		store:    store,
		uploads:  uploads,
		splitter: splitter,
		logger:   logger.Named("ingest"),
	}, nil
}

// Ingest processes one uploaded file for a tenant: extract text, split
// into chunks, embed, and upsert into the tenant's collection.
//
// The upload is kept on disk only while processing runs; the transient
// copy is removed on every exit path. A failure mid-batch does not roll
// back chunks that were already written.
func (p *Pipeline) Ingest(ctx context.Context, id tenant.ID, fileName string, data []byte) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext != "md" && ext != "pdf" && ext != "json" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	if _, err := p.uploads.Save(id, fileName, data); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	defer func() {
		if err := p.uploads.Remove(id, fileName); err != nil {
			p.logger.Warn("failed to remove transient upload",
				zap.String("tenant", id.String()),
				zap.String("file", fileName),
				zap.Error(err),
			)
		}
	}()

	text, err := extractText(ext, data)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", fileName, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoContent, fileName)
	}

	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return "", fmt.Errorf("splitting %s: %w", fileName, err)
	}

	docs := make([]vectorstore.Document, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		docs = append(docs, vectorstore.Document{
			ID:      uuid.NewString(),
			Content: chunk,
			Metadata: map[string]string{
				"tenant_id": id.String(),
				"file":      fileName,
				"chunk":     strconv.Itoa(i),
			},
		})
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoContent, fileName)
	}

	if _, err := p.store.AddDocuments(ctx, id.Collection(), docs); err != nil {
		return "", fmt.Errorf("storing chunks for %s: %w", fileName, err)
	}

	p.logger.Info("ingested document",
		zap.String("tenant", id.String()),
		zap.String("file", fileName),
		zap.Int("chunks", len(docs)),
	)

	return fmt.Sprintf("File %q processed and added to the vector store.", fileName), nil
}
