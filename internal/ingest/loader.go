package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// extractText converts raw file bytes into plain text, routed by the
// lowercased file extension (without leading dot).
func extractText(ext string, data []byte) (string, error) {
	switch ext {
	case "md":
		return markdownText(data)
	case "pdf":
		return pdfText(data)
	case "json":
		// JSON knowledge documents are indexed as raw text.
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// markdownText extracts the plain text of a markdown document by
// walking the goldmark AST, dropping formatting markup.
func markdownText(data []byte) (string, error) {
	doc := goldmark.New().Parser().Parse(gtext.NewReader(data))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Separate blocks so headings don't run into paragraphs.
			if n.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(data))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(data))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walking markdown AST: %w", err)
	}

	return strings.TrimSpace(b.String()), nil
}

// pdfText extracts the plain text of a PDF document.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting PDF text: %w", err)
	}

	content, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("reading PDF text: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}
