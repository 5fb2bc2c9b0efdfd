// Package duckdb stores decoded VCF headers and records in DuckDB.
// Each load of a source file is a run, keyed by a generated run id.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding decoded variant data.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		run_id VARCHAR PRIMARY KEY,
		path VARCHAR,
		size BIGINT,
		mod_time_ns BIGINT,
		sample_count INTEGER,
		loaded_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS header_meta (
		run_id VARCHAR,
		key VARCHAR,
		value VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS header_fields (
		run_id VARCHAR,
		section VARCHAR,
		id VARCHAR,
		number VARCHAR,
		type VARCHAR,
		description VARCHAR,
		extra VARCHAR
	)`,
	`ALTER TABLE header_fields ADD COLUMN IF NOT EXISTS extra VARCHAR`,
	`CREATE TABLE IF NOT EXISTS records (
		run_id VARCHAR,
		seq BIGINT,
		chrom VARCHAR,
		pos BIGINT,
		id VARCHAR,
		ref VARCHAR,
		alt VARCHAR,
		qual DOUBLE,
		filter VARCHAR,
		is_snv BOOLEAN,
		info VARCHAR,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS genotypes (
		run_id VARCHAR,
		seq BIGINT,
		sample VARCHAR,
		gt VARCHAR,
		phased BOOLEAN,
		fields VARCHAR
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ClearRun removes everything stored for a run.
func (s *Store) ClearRun(runID string) error {
	for _, table := range []string{"genotypes", "records", "header_fields", "header_meta", "sources"} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE run_id=?", runID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
