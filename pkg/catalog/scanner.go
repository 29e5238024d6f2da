package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glissade/rcol/pkg/jazz"
	"github.com/glissade/rcol/pkg/rcol"
)

// Scanner walks directory trees for container files and records what
// it finds. Decoding runs through the injected registry, so the
// caller decides which chunk kinds count as known.
type Scanner struct {
	store  *Store
	reg    *rcol.Registry
	logger *slog.Logger
}

// NewScanner returns a scanner recording into store. A nil logger
// discards progress output.
func NewScanner(store *Store, reg *rcol.Registry, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{store: store, reg: reg, logger: logger}
}

// Scan walks root, examines every container file, and records one
// scan row plus one container row per file. A lock file beside the
// database serializes scans; a second concurrent scan is refused, not
// queued.
func (s *Scanner) Scan(ctx context.Context, root string) (*Scan, error) {
	unlock, err := s.store.lockForScan()
	if err != nil {
		return nil, err
	}
	defer unlock()

	scan := &Scan{
		ID:        s.store.newScanID(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}

	var files []scannedFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !containerFile(path) {
			return nil
		}
		row, detail := s.examine(path)
		files = append(files, scannedFile{row: row, detail: detail})
		scan.Files++
		scan.Chunks += row.TotalChunks
		scan.Diagnostics += row.Diagnostics
		s.logger.Info("scanned container",
			slog.String("path", path),
			slog.Int("chunks", row.TotalChunks),
			slog.Int("diagnostics", row.Diagnostics))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	scan.FinishedAt = time.Now().UTC()
	if err := s.store.recordScan(ctx, scan, files); err != nil {
		return nil, err
	}
	s.logger.Info("scan recorded",
		slog.String("id", scan.ID),
		slog.Int("files", scan.Files),
		slog.Int("diagnostics", scan.Diagnostics))
	return scan, nil
}

// examine reads and decodes one file. Unreadable or unparseable files
// still produce a row, carrying the failure as their only diagnostic.
func (s *Scanner) examine(path string) (Container, Detail) {
	row := Container{Path: path}
	var detail Detail

	data, err := os.ReadFile(path)
	if err != nil {
		row.Diagnostics = 1
		detail.Diagnostics = []DiagnosticRecord{{Chunk: -1, Kind: "read-failure", Message: err.Error()}}
		return row, detail
	}
	c, err := rcol.Decode(data, s.reg)
	if err != nil {
		row.Diagnostics = 1
		detail.Diagnostics = []DiagnosticRecord{{Chunk: -1, Kind: string(rcol.DiagDecodeFailure), Message: err.Error()}}
		return row, detail
	}
	rcol.ValidateReferences(c)
	jazz.Analyze(c)

	row.Version = c.Version
	row.PublicChunks = len(c.Public)
	row.TotalChunks = c.NumChunks()
	row.ExternalRefs = len(c.Resources)
	row.Diagnostics = len(c.Diagnostics)

	chunks := c.Chunks()
	detail.Chunks = make([]ChunkSummary, len(chunks))
	for i, ch := range chunks {
		_, raw := ch.Block.(*rcol.RawBlock)
		detail.Chunks[i] = ChunkSummary{
			Tag:   ch.Tag,
			Kind:  kindName(ch.Block),
			Size:  len(ch.Raw),
			Known: !raw,
		}
	}
	if len(c.Diagnostics) > 0 {
		detail.Diagnostics = make([]DiagnosticRecord, len(c.Diagnostics))
		for i, d := range c.Diagnostics {
			detail.Diagnostics[i] = DiagnosticRecord{
				Chunk:   d.Chunk,
				Tag:     d.Tag,
				Kind:    string(d.Kind),
				Message: d.Message,
			}
		}
	}
	return row, detail
}

func containerFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rcol", ".jazz":
		return true
	}
	return false
}

// kindName names a decoded block's kind after its Go type; payloads
// nothing decoded report as "raw".
func kindName(b rcol.Block) string {
	if b == nil {
		return "raw"
	}
	if _, ok := b.(*rcol.RawBlock); ok {
		return "raw"
	}
	name := fmt.Sprintf("%T", b)
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
