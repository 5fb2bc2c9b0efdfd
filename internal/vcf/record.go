package vcf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is one fully decoded VCF data line.
type Record struct {
	Chrom     string           `json:"chrom"`
	Pos       int64            `json:"pos"`
	ID        []string         `json:"id"`
	Ref       string           `json:"ref"`
	Alt       []string         `json:"alt"`
	Qual      Value            `json:"qual"`
	Filter    []string         `json:"filter"`
	Info      map[string]Value `json:"info"`
	Format    []string         `json:"format,omitempty"`
	Genotypes []Genotype       `json:"genotypes,omitempty"`
}

// Genotype holds one sample's decoded FORMAT values.
// GT, when present, is a list of allele strings with missing entries for ".".
type Genotype struct {
	Sample string           `json:"sample"`
	Phased bool             `json:"phased,omitempty"`
	Fields map[string]Value `json:"fields"`
}

// Decode decodes one record line against s.
func (s *Schema) Decode(line string) (*Record, error) {
	return Decode(s, line)
}

// Decode decodes one tab-delimited record line into a typed Record.
// The line may carry its trailing newline.
func Decode(s *Schema, line string) (*Record, error) {
	line = strings.TrimRight(line, "\r\n")
	cols := strings.Split(line, "\t")
	if len(cols) != s.Columns() {
		return nil, &RecordShapeError{
			Message: fmt.Sprintf("expected %d columns, found %d", s.Columns(), len(cols)),
		}
	}

	pos, err := strconv.ParseInt(cols[1], 10, 64)
	if err != nil {
		return nil, &ValueFormatError{Field: "POS", Value: cols[1], Err: err}
	}
	if pos <= 0 {
		return nil, &ValueFormatError{Field: "POS", Value: cols[1], Err: errors.New("position must be positive")}
	}

	qual := Missing()
	if cols[5] != MissingValue {
		q, err := strconv.ParseFloat(cols[5], 64)
		if err != nil {
			return nil, &ValueFormatError{Field: "QUAL", Value: cols[5], Err: err}
		}
		qual = FloatValue(q)
	}

	r := &Record{
		Chrom:  cols[0],
		Pos:    pos,
		ID:     strings.Split(cols[2], ";"),
		Ref:    cols[3],
		Alt:    strings.Split(cols[4], ","),
		Qual:   qual,
		Filter: strings.Split(cols[6], ";"),
	}

	if r.Info, err = decodeInfo(s, cols[7]); err != nil {
		return nil, err
	}

	if s.HasSamples() {
		if err := r.decodeGenotypes(s, cols[8], cols[9:]); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// decodeInfo parses the semicolon-separated INFO column.
func decodeInfo(s *Schema, col string) (map[string]Value, error) {
	info := make(map[string]Value)
	if col == MissingValue {
		return info, nil
	}

	for _, tok := range SplitQuoted(col, ';') {
		if tok == "" {
			continue
		}
		key, raw, hasValue := strings.Cut(tok, "=")
		decl, ok := s.Info(key)
		if !ok {
			return nil, &UnknownFieldError{Section: "INFO", ID: key}
		}

		if !hasValue {
			if !decl.Number.IsFlag() && decl.Type != Flag {
				return nil, &ValueFormatError{Field: key, Value: tok, Err: errValueRequired}
			}
			info[key] = FlagValue()
			continue
		}

		v, err := Coerce(decl.FieldDef, raw)
		if err != nil {
			return nil, err
		}
		info[key] = v
	}
	return info, nil
}

// decodeGenotypes parses the FORMAT column and one column per sample.
func (r *Record) decodeGenotypes(s *Schema, formatCol string, sampleCols []string) error {
	r.Format = SplitQuoted(formatCol, ':')
	for _, id := range r.Format {
		if _, ok := s.Format(id); !ok {
			return &UnknownFieldError{Section: "FORMAT", ID: id}
		}
	}

	samples := s.Samples()
	r.Genotypes = make([]Genotype, len(samples))
	for i, name := range samples {
		g := Genotype{Sample: name, Fields: make(map[string]Value)}
		values := SplitQuoted(sampleCols[i], ':')
		if len(values) > len(r.Format) {
			return &RecordShapeError{
				Message: fmt.Sprintf("sample %s has %d values for %d FORMAT fields", name, len(values), len(r.Format)),
			}
		}

		for j, raw := range values {
			id := r.Format[j]
			decl, _ := s.Format(id)
			v, err := Coerce(decl.FieldDef, raw)
			if err != nil {
				return err
			}
			if id == "GT" {
				if v, g.Phased, err = r.resolveAlleles(raw); err != nil {
					return err
				}
			}
			g.Fields[id] = v
		}
		r.Genotypes[i] = g
	}
	return nil
}

// resolveAlleles maps GT allele indices to allele strings: 0 is REF, k is ALT[k-1].
// "." stays missing.
func (r *Record) resolveAlleles(gt string) (Value, bool, error) {
	phased := false
	if i := strings.IndexAny(gt, "|/"); i >= 0 {
		phased = gt[i] == '|'
	}

	tokens := strings.FieldsFunc(gt, func(c rune) bool { return c == '|' || c == '/' })
	alleles := make([]Value, 0, len(tokens))
	for _, tok := range tokens {
		if tok == MissingValue {
			alleles = append(alleles, Missing())
			continue
		}
		idx, err := strconv.Atoi(tok)
		if err != nil {
			return Value{}, false, &ValueFormatError{Field: "GT", Value: gt, Err: err}
		}
		allele, ok := r.Allele(idx)
		if !ok {
			return Value{}, false, &ValueFormatError{
				Field: "GT", Value: gt, Err: fmt.Errorf("allele index %d out of range", idx),
			}
		}
		alleles = append(alleles, StringValue(allele))
	}
	return ListValue(alleles...), phased, nil
}

// Allele returns the allele for a GT index: 0 is REF, k >= 1 is ALT[k-1].
func (r *Record) Allele(idx int) (string, bool) {
	if idx == 0 {
		return r.Ref, true
	}
	if idx < 0 || idx > len(r.Alt) {
		return "", false
	}
	return r.Alt[idx-1], true
}

// Sample returns the genotype of the named sample.
func (r *Record) Sample(name string) (Genotype, bool) {
	for _, g := range r.Genotypes {
		if g.Sample == name {
			return g, true
		}
	}
	return Genotype{}, false
}

// Pass reports whether the record passed all filters.
func (r *Record) Pass() bool {
	return len(r.Filter) == 1 && r.Filter[0] == "PASS"
}

// IsSNV returns true if every alternate allele is a single-base substitution.
func (r *Record) IsSNV() bool {
	if len(r.Ref) != 1 {
		return false
	}
	for _, a := range r.Alt {
		if len(a) != 1 || a == MissingValue {
			return false
		}
	}
	return true
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (r *Record) NormalizeChrom() string {
	if len(r.Chrom) > 3 && r.Chrom[:3] == "chr" {
		return r.Chrom[3:]
	}
	return r.Chrom
}
