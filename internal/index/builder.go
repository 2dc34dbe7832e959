package index

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/registry"
)

// Partition maps one domain id to its source location root. A domain worker
// only ever sees records from its own partition.
type Partition struct {
	Domain string
	Root   string
}

// Builder scans partition roots into canonical document records.
type Builder struct {
	partitions []Partition
	logger     *zap.Logger
}

// NewBuilder creates a builder over the given partitions.
func NewBuilder(partitions []Partition, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{partitions: partitions, logger: logger}
}

// Build scans every partition once, deriving a canonical record per file.
// The scan is deterministic for an unchanged source set: files are visited
// in lexical order, and when two files resolve to the same canonical key the
// lexically first location is kept, the rest retained as alternates and
// reported as an inconsistency rather than silently dropped.
func (b *Builder) Build(ctx context.Context) (map[string]domain.DocumentRecord, []domain.Inconsistency, error) {
	records := make(map[string]domain.DocumentRecord)
	dupes := make(map[string][]string)

	for _, p := range b.partitions {
		if err := b.scanPartition(ctx, p, records, dupes); err != nil {
			return nil, nil, fmt.Errorf("scan partition %s: %w", p.Domain, err)
		}
	}

	var incons []domain.Inconsistency
	for key, locs := range dupes {
		rec := records[key]
		incons = append(incons, domain.Inconsistency{
			Key:       rec.Key,
			Locations: append([]string{rec.Location}, locs...),
		})
	}
	sort.Slice(incons, func(i, j int) bool {
		return incons[i].Key.String() < incons[j].Key.String()
	})

	b.logger.Info("index build complete",
		zap.Int("records", len(records)),
		zap.Int("inconsistencies", len(incons)),
	)
	return records, incons, nil
}

func (b *Builder) scanPartition(
	ctx context.Context, p Partition,
	records map[string]domain.DocumentRecord, dupes map[string][]string,
) error {
	root := filepath.Clean(p.Root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rec, derr := b.deriveRecord(p.Domain, root, path, d)
		if derr != nil {
			b.logger.Warn("skipping file", zap.String("path", path), zap.Error(derr))
			return nil
		}

		id := rec.Key.String()
		if existing, ok := records[id]; ok {
			if existing.Location == rec.Location {
				return nil
			}
			existing.Alternates = append(existing.Alternates, rec.Location)
			records[id] = existing
			dupes[id] = append(dupes[id], rec.Location)
			return nil
		}
		records[id] = rec
		return nil
	})
}

// deriveRecord applies the pattern rules to one file.
func (b *Builder) deriveRecord(domainID, root, path string, d fs.DirEntry) (domain.DocumentRecord, error) {
	info, err := d.Info()
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("stat: %w", err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	norm := registry.Normalize(rel)

	kind := deriveKind(norm)
	material := deriveMaterial(norm)
	batch := deriveBatch(norm)
	if material == "" && batch == "" {
		// No canonical discriminator in the name: use the normalized filename
		// stem so unrelated generic documents do not fold onto one triple.
		stem := filepath.Base(rel)
		material = registry.Normalize(strings.TrimSuffix(stem, filepath.Ext(stem)))
	}

	keywords := fileKeywords(rel, material, batch, kind)
	if title := readTitle(path); title != "" {
		for _, w := range strings.Fields(registry.Normalize(title)) {
			if len(w) >= 2 && !contains(keywords, w) {
				keywords = append(keywords, w)
			}
		}
	}

	return domain.DocumentRecord{
		Key:      domain.NormalKey(material, kind, batch),
		Location: path,
		Domain:   domainID,
		Aliases:  append([]string(nil), kindAliases[kind]...),
		Keywords: keywords,
		ModTime:  info.ModTime().UTC(),
	}, nil
}

// readTitle pulls the first non-empty line of a text document as its heading.
// Non-text formats contribute no title keywords; their field extraction is
// the extractor collaborator's concern, not the index's.
func readTitle(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
	default:
		return ""
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimLeft(sc.Text(), "# "))
		if line != "" {
			return line
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
