// Package store implements the indexed variant row table on DuckDB.
// A store is append-only: batches of normalized rows go in, the
// indexes are built once after the final batch, and from then on the
// store is only queried. Another store's file can be attached
// read-only for cross-store joins.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-annotate/internal/vcf"
)

// Storage failure sentinels. Both are fatal to the run.
var (
	ErrStorageWrite  = errors.New("storage write failed")
	ErrStorageAttach = errors.New("storage attach failed")
)

const schema = `CREATE TABLE IF NOT EXISTS vcf (
	id BIGINT NOT NULL,
	n_rec BIGINT NOT NULL,
	n_alt INTEGER NOT NULL,
	chrom VARCHAR,
	pos BIGINT NOT NULL,
	snp_id VARCHAR,
	ref VARCHAR,
	alt VARCHAR,
	qual VARCHAR,
	filter VARCHAR,
	info VARCHAR,
	format VARCHAR,
	samples VARCHAR
)`

const insertStmt = `INSERT INTO vcf
	(id, n_rec, n_alt, chrom, pos, snp_id, ref, alt, qual, filter, info, format, samples)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store is a variant row table backed by DuckDB. Rows carry a
// store-assigned monotonic id that defines the store's natural order.
type Store struct {
	db      *sql.DB
	path    string
	tempDir string // non-empty when the store owns a scratch directory
	nextID  int64
}

// Open opens or creates a store at path. An empty path opens an
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenTemp creates a store in a private scratch directory. Close
// removes the directory along with the database file, on every exit
// path.
func OpenTemp() (*Store, error) {
	dir, err := os.MkdirTemp("", "vibe-annotate-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	s, err := Open(filepath.Join(dir, "variants.db"))
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	s.tempDir = dir
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	// Resume the id sequence when reusing an existing store file.
	if err := s.db.QueryRow("SELECT coalesce(max(id), 0) FROM vcf").Scan(&s.nextID); err != nil {
		return fmt.Errorf("read max id: %w", err)
	}
	return nil
}

// Path returns the on-disk location of the store; empty for in-memory
// stores.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying connection for cross-store queries.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the connection and removes the scratch directory of a
// temporary store.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.tempDir != "" {
		if rmErr := os.RemoveAll(s.tempDir); err == nil {
			err = rmErr
		}
	}
	return err
}

// InsertBatch appends rows in a single transaction: either the whole
// batch commits or none of it does. An empty batch is a no-op.
func (s *Store) InsertBatch(rows []vcf.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorageWrite, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertStmt)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", ErrStorageWrite, err)
	}
	defer stmt.Close()

	id := s.nextID
	for _, r := range rows {
		id++
		if _, err := stmt.Exec(id, r.RecordNumber, r.AltIndex, r.Chrom, r.Pos,
			r.ID, r.Ref, r.Alt, r.Qual, r.Filter, r.Info, r.Format, r.Samples); err != nil {
			return fmt.Errorf("%w: insert record %d: %v", ErrStorageWrite, r.RecordNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorageWrite, err)
	}

	s.nextID = id
	return nil
}

// BuildIndex builds the positional and record-number indexes. Call it
// once, after the final batch.
func (s *Store) BuildIndex() error {
	for _, stmt := range []string{
		"CREATE INDEX chr_pos ON vcf (pos, chrom)",
		"CREATE INDEX rec_num ON vcf (n_rec)",
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("build index: %w", err)
		}
	}
	return nil
}

// Attach makes the store file at path visible in this store's query
// context under the given schema name, read-only.
func (s *Store) Attach(name, path string) error {
	if _, err := s.db.Exec(fmt.Sprintf("ATTACH '%s' AS %s (READ_ONLY)", path, name)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStorageAttach, path, err)
	}
	return nil
}

// Rows reports the number of stored rows.
func (s *Store) Rows() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT count(*) FROM vcf").Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}
