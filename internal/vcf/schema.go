package vcf

// Schema is the typed view of a VCF header. It is immutable once built and
// may be shared by concurrent decoders.
type Schema struct {
	info    map[string]InfoDecl
	format  map[string]FormatDecl
	filter  map[string]FilterDecl
	meta    map[string]string
	samples []string

	// first-appearance order, for listing
	infoIDs   []string
	formatIDs []string
	filterIDs []string
	metaKeys  []string
}

// NewSchema aggregates parsed declarations. A repeated id or meta key
// replaces the earlier entry.
func NewSchema(decls []Declaration) *Schema {
	s := &Schema{
		info:    make(map[string]InfoDecl),
		format:  make(map[string]FormatDecl),
		filter:  make(map[string]FilterDecl),
		meta:    make(map[string]string),
		samples: []string{},
	}

	for _, d := range decls {
		switch d := d.(type) {
		case MetaDecl:
			if _, ok := s.meta[d.Key]; !ok {
				s.metaKeys = append(s.metaKeys, d.Key)
			}
			s.meta[d.Key] = d.Value
		case InfoDecl:
			if _, ok := s.info[d.ID]; !ok {
				s.infoIDs = append(s.infoIDs, d.ID)
			}
			s.info[d.ID] = d
		case FormatDecl:
			if _, ok := s.format[d.ID]; !ok {
				s.formatIDs = append(s.formatIDs, d.ID)
			}
			s.format[d.ID] = d
		case FilterDecl:
			if _, ok := s.filter[d.ID]; !ok {
				s.filterIDs = append(s.filterIDs, d.ID)
			}
			s.filter[d.ID] = d
		case SamplesDecl:
			s.samples = append([]string{}, d.Names...)
		}
	}

	return s
}

// ParseSchema parses header text and builds its Schema.
func ParseSchema(text string) (*Schema, error) {
	decls, err := ParseHeader(text)
	if err != nil {
		return nil, err
	}
	return NewSchema(decls), nil
}

// Info returns the INFO declaration for id.
func (s *Schema) Info(id string) (InfoDecl, bool) {
	d, ok := s.info[id]
	return d, ok
}

// Format returns the FORMAT declaration for id.
func (s *Schema) Format(id string) (FormatDecl, bool) {
	d, ok := s.format[id]
	return d, ok
}

// Filter returns the FILTER declaration for id.
func (s *Schema) Filter(id string) (FilterDecl, bool) {
	d, ok := s.filter[id]
	return d, ok
}

// Meta returns the value of a ##key=value line.
func (s *Schema) Meta(key string) (string, bool) {
	v, ok := s.meta[key]
	return v, ok
}

func (s *Schema) InfoIDs() []string   { return append([]string(nil), s.infoIDs...) }
func (s *Schema) FormatIDs() []string { return append([]string(nil), s.formatIDs...) }
func (s *Schema) FilterIDs() []string { return append([]string(nil), s.filterIDs...) }
func (s *Schema) MetaKeys() []string  { return append([]string(nil), s.metaKeys...) }

// Samples returns a copy of the sample names in column order.
func (s *Schema) Samples() []string {
	return append([]string{}, s.samples...)
}

// HasSamples reports whether records carry FORMAT and genotype columns.
func (s *Schema) HasSamples() bool {
	return len(s.samples) > 0
}

// Columns returns the number of tab-separated columns a record must have.
func (s *Schema) Columns() int {
	if !s.HasSamples() {
		return len(FixedColumns)
	}
	return len(FixedColumns) + 1 + len(s.samples)
}
