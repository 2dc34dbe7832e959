// Package extractor pulls structured fields out of resolved documents.
// Extraction failures are typed so a caller can tell an unsupported format
// from a corrupt or empty document and degrade per document, not per domain.
package extractor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/crossdex/internal/domain"
)

// maxLineBytes bounds a single document line. Anything longer is machine
// output, not a field, and marks the document corrupt.
const maxLineBytes = 64 * 1024

// Text extracts "Key: Value" fields from plain-text and markdown documents.
type Text struct{}

// NewText creates a text field extractor.
func NewText() *Text {
	return &Text{}
}

// Extract parses the record's document into fields. Each field carries the
// record's material and batch plus a citation back to the source location.
func (e *Text) Extract(ctx context.Context, rec domain.DocumentRecord) ([]domain.Field, error) {
	switch strings.ToLower(filepath.Ext(rec.Location)) {
	case ".txt", ".md":
	default:
		return nil, fmt.Errorf("extract %s: %w", rec.Location, domain.ErrUnsupportedFormat)
	}

	f, err := os.Open(filepath.Clean(rec.Location))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %v: %w", rec.Location, err, domain.ErrCorruptDocument)
	}
	defer func() { _ = f.Close() }()

	citation := domain.Citation{File: rec.Location, Domain: rec.Domain}

	var fields []domain.Field
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		name, value, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		fields = append(fields, domain.Field{
			Name:      name,
			Value:     value,
			Material:  rec.Key.Material,
			Batch:     rec.Key.Batch,
			Citations: []domain.Citation{citation},
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("extract %s: %v: %w", rec.Location, err, domain.ErrCorruptDocument)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("extract %s: %w", rec.Location, domain.ErrEmptyDocument)
	}
	return fields, nil
}

// parseLine reads one "Key: Value" line, tolerating markdown list and
// heading decoration. Lines without a key-value shape are prose and skipped.
func parseLine(line string) (name, value string, ok bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*# ")
	line = strings.ReplaceAll(line, "**", "")

	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" || value == "" {
		return "", "", false
	}
	// A "key" with many words is a sentence that happens to contain a colon.
	if len(strings.Fields(name)) > 5 {
		return "", "", false
	}
	return name, value, true
}
