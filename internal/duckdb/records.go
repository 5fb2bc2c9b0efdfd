package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/gusevfe/bio-db-vcf/internal/vcf"
)

// SeqRecord is a decoded record with its position in the source file.
type SeqRecord struct {
	Seq    int
	Record *vcf.Record
}

// RecordRow is a stored record. List columns are joined the way they appear in VCF.
type RecordRow struct {
	RunID  string
	Seq    int64
	Chrom  string
	Pos    int64
	ID     string
	Ref    string
	Alt    string
	Qual   sql.NullFloat64
	Filter string
	IsSNV  bool
	Info   string // JSON object
}

// GenotypeRow is one sample's stored genotype for a record.
type GenotypeRow struct {
	Seq    int64
	Chrom  string
	Pos    int64
	Sample string
	GT     string
	Phased bool
	Fields string // JSON object
}

// WriteRecords batch-inserts records and their genotypes using the Appender API.
// When normalizeChrom is set the "chr" prefix is dropped from chromosome names.
func (s *Store) WriteRecords(runID string, recs []SeqRecord, normalizeChrom bool) error {
	if len(recs) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	records, err := newAppender(conn, "records")
	if err != nil {
		return err
	}
	defer records.Close()

	genotypes, err := newAppender(conn, "genotypes")
	if err != nil {
		return err
	}
	defer genotypes.Close()

	for _, sr := range recs {
		r := sr.Record
		info, err := json.Marshal(r.Info)
		if err != nil {
			return fmt.Errorf("encode info: %w", err)
		}

		var qual any
		if q, ok := r.Qual.Float(); ok {
			qual = q
		}

		chrom := r.Chrom
		if normalizeChrom {
			chrom = r.NormalizeChrom()
		}

		if err := records.AppendRow(
			runID, int64(sr.Seq), chrom, r.Pos,
			strings.Join(r.ID, ";"), r.Ref, strings.Join(r.Alt, ","),
			qual, strings.Join(r.Filter, ";"), r.IsSNV(), string(info),
		); err != nil {
			return fmt.Errorf("append record: %w", err)
		}

		for _, g := range r.Genotypes {
			fields, err := json.Marshal(g.Fields)
			if err != nil {
				return fmt.Errorf("encode genotype: %w", err)
			}
			if err := genotypes.AppendRow(
				runID, int64(sr.Seq), g.Sample, formatGT(g), g.Phased, string(fields),
			); err != nil {
				return fmt.Errorf("append genotype: %w", err)
			}
		}
	}

	if err := records.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return genotypes.Flush()
}

func newAppender(conn *sql.Conn, table string) (*goduckdb.Appender, error) {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create %s appender: %w", table, err)
	}
	return appender, nil
}

// formatGT renders resolved alleles back into a GT-like string, e.g. "G|A".
func formatGT(g vcf.Genotype) string {
	gt, ok := g.Fields["GT"]
	if !ok {
		return ""
	}
	alleles, _ := gt.List()
	parts := make([]string, len(alleles))
	for i, a := range alleles {
		parts[i] = a.String()
	}
	sep := "/"
	if g.Phased {
		sep = "|"
	}
	return strings.Join(parts, sep)
}

// CountRecords returns the number of records stored for a run.
func (s *Store) CountRecords(runID string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT count(*) FROM records WHERE run_id=?`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// LookupPosition returns every stored record at chrom:pos, across runs.
func (s *Store) LookupPosition(chrom string, pos int64) ([]RecordRow, error) {
	rows, err := s.db.Query(`SELECT
		run_id, seq, chrom, pos, id, ref, alt, qual, filter, is_snv, info
		FROM records
		WHERE chrom=? AND pos=?
		ORDER BY run_id, seq`, chrom, pos)
	if err != nil {
		return nil, fmt.Errorf("query position: %w", err)
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var r RecordRow
		if err := rows.Scan(
			&r.RunID, &r.Seq, &r.Chrom, &r.Pos, &r.ID, &r.Ref, &r.Alt,
			&r.Qual, &r.Filter, &r.IsSNV, &r.Info,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// SampleGenotypes returns one sample's genotypes for a run in file order.
func (s *Store) SampleGenotypes(runID, sample string) ([]GenotypeRow, error) {
	rows, err := s.db.Query(`SELECT
		g.seq, r.chrom, r.pos, g.sample, g.gt, g.phased, g.fields
		FROM genotypes g
		JOIN records r ON r.run_id = g.run_id AND r.seq = g.seq
		WHERE g.run_id=? AND g.sample=?
		ORDER BY g.seq`, runID, sample)
	if err != nil {
		return nil, fmt.Errorf("query genotypes: %w", err)
	}
	defer rows.Close()

	var out []GenotypeRow
	for rows.Next() {
		var g GenotypeRow
		if err := rows.Scan(&g.Seq, &g.Chrom, &g.Pos, &g.Sample, &g.GT, &g.Phased, &g.Fields); err != nil {
			return nil, fmt.Errorf("scan genotype: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genotypes: %w", err)
	}
	return out, nil
}

// Genotype returns one sample's stored genotype for the record at seq in a run.
func (s *Store) Genotype(runID string, seq int64, sample string) (GenotypeRow, bool, error) {
	g := GenotypeRow{Seq: seq, Sample: sample}
	err := s.db.QueryRow(`SELECT r.chrom, r.pos, g.gt, g.phased, g.fields
		FROM genotypes g
		JOIN records r ON r.run_id = g.run_id AND r.seq = g.seq
		WHERE g.run_id=? AND g.seq=? AND g.sample=?`, runID, seq, sample,
	).Scan(&g.Chrom, &g.Pos, &g.GT, &g.Phased, &g.Fields)
	if errors.Is(err, sql.ErrNoRows) {
		return GenotypeRow{}, false, nil
	}
	if err != nil {
		return GenotypeRow{}, false, fmt.Errorf("query genotype: %w", err)
	}
	return g, true, nil
}
