package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/gusevfe/bio-db-vcf/internal/vcf"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Source is one stored load run.
type Source struct {
	RunID       string
	Path        string
	Size        int64
	SampleCount int
	LoadedAt    time.Time
}

// FindSource returns the run id of a previous load of the same unchanged file.
func (s *Store) FindSource(fp FileFingerprint) (string, bool, error) {
	var runID string
	err := s.db.QueryRow(`SELECT run_id FROM sources
		WHERE path=? AND size=? AND mod_time_ns=?
		ORDER BY loaded_at DESC LIMIT 1`,
		fp.Path, fp.Size, fp.ModTime.UnixNano()).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query source: %w", err)
	}
	return runID, true, nil
}

// WriteSource records a run and the header schema it was decoded with.
func (s *Store) WriteSource(runID string, fp FileFingerprint, schema *vcf.Schema) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO sources VALUES (?, ?, ?, ?, ?, ?)`,
		runID, fp.Path, fp.Size, fp.ModTime.UnixNano(), len(schema.Samples()), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert source: %w", err)
	}

	for _, key := range schema.MetaKeys() {
		value, _ := schema.Meta(key)
		if _, err := tx.Exec(`INSERT INTO header_meta VALUES (?, ?, ?)`, runID, key, value); err != nil {
			return fmt.Errorf("insert header meta: %w", err)
		}
	}

	insertField := func(section string, def vcf.FieldDef) error {
		extra, err := encodeExtra(def.Extra)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO header_fields VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, section, def.ID, def.Number.String(), def.Type.String(), def.Description, extra)
		return err
	}
	for _, id := range schema.InfoIDs() {
		d, _ := schema.Info(id)
		if err := insertField("INFO", d.FieldDef); err != nil {
			return fmt.Errorf("insert info field: %w", err)
		}
	}
	for _, id := range schema.FormatIDs() {
		d, _ := schema.Format(id)
		if err := insertField("FORMAT", d.FieldDef); err != nil {
			return fmt.Errorf("insert format field: %w", err)
		}
	}
	for _, id := range schema.FilterIDs() {
		d, _ := schema.Filter(id)
		extra, err := encodeExtra(d.Extra)
		if err != nil {
			return fmt.Errorf("insert filter field: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO header_fields VALUES (?, 'FILTER', ?, NULL, NULL, ?, ?)`,
			runID, d.ID, d.Description, extra); err != nil {
			return fmt.Errorf("insert filter field: %w", err)
		}
	}

	return tx.Commit()
}

// encodeExtra renders extra declaration attributes as a JSON array, or NULL when there are none.
func encodeExtra(attrs []vcf.Attribute) (any, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encode extra attributes: %w", err)
	}
	return string(b), nil
}

// Sources lists stored runs, newest first.
func (s *Store) Sources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT run_id, path, size, sample_count, loaded_at
		FROM sources ORDER BY loaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.RunID, &src.Path, &src.Size, &src.SampleCount, &src.LoadedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}
