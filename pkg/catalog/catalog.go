// Package catalog maintains a SQLite index of scanned container
// files: one row per scan run, one row per container, and a CBOR
// detail blob per container carrying the chunk-level summary.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Store is a catalog database handle.
type Store struct {
	db      *sql.DB
	path    string
	entropy *ulid.MonotonicEntropy
}

// Open connects to the catalog database at path, creating it and its
// parent directory as needed, and applies schema migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{
		db:      db,
		path:    path,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Scan IDs are ULIDs with monotonic entropy: unique without
// coordination and lexicographically ordered by creation time even
// within one millisecond, so "ORDER BY id" is chronological.
func (s *Store) newScanID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// lockForScan takes the scan lock file beside the database. The lock
// guards the walk-then-record window across processes; SQLite's own
// locking only covers individual statements.
func (s *Store) lockForScan() (func(), error) {
	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another scan is already running against %s", s.path)
	}
	return func() { _ = lock.Unlock() }, nil
}

// Scan is one recorded scan run.
type Scan struct {
	ID          string
	Root        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Files       int
	Chunks      int
	Diagnostics int
}

// Container is one scanned file within a scan.
type Container struct {
	ScanID       string
	Path         string
	Version      uint32
	PublicChunks int
	TotalChunks  int
	ExternalRefs int
	Diagnostics  int
}

// ChunkSummary describes one chunk of a scanned container. Known
// means the payload decoded into a typed block; demoted and
// unregistered chunks both report their kind as "raw".
type ChunkSummary struct {
	Tag   string `cbor:"tag"`
	Kind  string `cbor:"kind"`
	Size  int    `cbor:"size"`
	Known bool   `cbor:"known"`
}

// DiagnosticRecord mirrors one container diagnostic in the detail
// blob. Chunk is -1 for file- or container-level findings.
type DiagnosticRecord struct {
	Chunk   int    `cbor:"chunk"`
	Tag     string `cbor:"tag,omitempty"`
	Kind    string `cbor:"kind"`
	Message string `cbor:"message"`
}

// Detail is the per-container CBOR payload.
type Detail struct {
	Chunks      []ChunkSummary     `cbor:"chunks"`
	Diagnostics []DiagnosticRecord `cbor:"diagnostics,omitempty"`
}

// Detail blobs use Core Deterministic Encoding: scanning the same
// file twice produces identical rows.
var (
	detailEnc cbor.EncMode
	detailDec cbor.DecMode
)

func init() {
	var err error
	detailEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("catalog: CBOR encoder initialization failed: " + err.Error())
	}
	detailDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("catalog: CBOR decoder initialization failed: " + err.Error())
	}
}

type scannedFile struct {
	row    Container
	detail Detail
}

// recordScan inserts the scan row and its container rows in one
// transaction; an interrupted scan leaves no partial rows behind.
func (s *Store) recordScan(ctx context.Context, scan *Scan, files []scannedFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin scan tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, root, started_at, finished_at, files, chunks, diagnostics)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.Root,
		scan.StartedAt.UTC().Format(time.RFC3339Nano),
		scan.FinishedAt.UTC().Format(time.RFC3339Nano),
		scan.Files, scan.Chunks, scan.Diagnostics)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	for i := range files {
		f := &files[i]
		blob, err := detailEnc.Marshal(&f.detail)
		if err != nil {
			return fmt.Errorf("marshal detail for %s: %w", f.row.Path, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO containers (scan_id, path, version, public_chunks, total_chunks, external_refs, diagnostics, detail)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			scan.ID, f.row.Path, f.row.Version, f.row.PublicChunks,
			f.row.TotalChunks, f.row.ExternalRefs, f.row.Diagnostics, blob)
		if err != nil {
			return fmt.Errorf("insert container row for %s: %w", f.row.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scan: %w", err)
	}
	return nil
}

// Scans returns every recorded scan, newest first.
func (s *Store) Scans(ctx context.Context) ([]Scan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, started_at, finished_at, files, chunks, diagnostics
		 FROM scans ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []Scan
	for rows.Next() {
		scan, err := scanScanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *scan)
	}
	return out, rows.Err()
}

// ScanByID returns one recorded scan.
func (s *Store) ScanByID(ctx context.Context, id string) (*Scan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, started_at, finished_at, files, chunks, diagnostics
		 FROM scans WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query scan: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no scan %s", id)
	}
	return scanScanRow(rows)
}

func scanScanRow(rows *sql.Rows) (*Scan, error) {
	var scan Scan
	var started, finished string
	if err := rows.Scan(&scan.ID, &scan.Root, &started, &finished,
		&scan.Files, &scan.Chunks, &scan.Diagnostics); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	var err error
	if scan.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if scan.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &scan, nil
}

// Containers returns the container rows of one scan, ordered by path.
func (s *Store) Containers(ctx context.Context, scanID string) ([]Container, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scan_id, path, version, public_chunks, total_chunks, external_refs, diagnostics
		 FROM containers WHERE scan_id = ? ORDER BY path`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query containers: %w", err)
	}
	defer rows.Close()

	var out []Container
	for rows.Next() {
		var row Container
		if err := rows.Scan(&row.ScanID, &row.Path, &row.Version, &row.PublicChunks,
			&row.TotalChunks, &row.ExternalRefs, &row.Diagnostics); err != nil {
			return nil, fmt.Errorf("container row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ContainerDetail returns the decoded detail blob for one container
// row.
func (s *Store) ContainerDetail(ctx context.Context, scanID, path string) (*Detail, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT detail FROM containers WHERE scan_id = ? AND path = ?`,
		scanID, path).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no container %q in scan %s", path, scanID)
	}
	if err != nil {
		return nil, fmt.Errorf("query container detail: %w", err)
	}

	var d Detail
	if err := detailDec.Unmarshal(blob, &d); err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	return &d, nil
}
