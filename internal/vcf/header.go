// Package vcf parses Variant Call Format headers into a typed schema and
// decodes record lines against it.
package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// FixedColumns are the eight mandatory VCF columns, in order.
var FixedColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// Declaration is one parsed header line: MetaDecl, InfoDecl, FilterDecl,
// FormatDecl or SamplesDecl.
type Declaration interface {
	declaration()
}

// MetaDecl is a free-form ##key=value line.
type MetaDecl struct {
	Key   string
	Value string
}

// Attribute is an extra key/value pair on a structured declaration (e.g. Source, Version).
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FieldDef describes a typed INFO or FORMAT field.
type FieldDef struct {
	ID          string
	Number      NumberSpec
	Type        ValueType
	Description string
	Extra       []Attribute
}

// InfoDecl is a ##INFO declaration.
type InfoDecl struct {
	FieldDef
}

// FormatDecl is a ##FORMAT declaration.
type FormatDecl struct {
	FieldDef
}

// FilterDecl is a ##FILTER declaration.
type FilterDecl struct {
	ID          string
	Description string
	Extra       []Attribute
}

// SamplesDecl holds the sample names from the #CHROM line. Names is empty
// when the file has no genotype columns.
type SamplesDecl struct {
	Names []string
}

func (MetaDecl) declaration()    {}
func (InfoDecl) declaration()    {}
func (FormatDecl) declaration()  {}
func (FilterDecl) declaration()  {}
func (SamplesDecl) declaration() {}

// ParseHeader parses a complete header block, from the first ## line through
// the #CHROM line. The result always ends with a SamplesDecl.
func ParseHeader(text string) ([]Declaration, error) {
	p := &headerParser{src: text, line: 1}
	return p.header()
}

// headerParser is a recursive-descent parser over the header text.
// Each grammar rule is a method that consumes its input or returns an error.
type headerParser struct {
	src  string
	pos  int
	line int
}

func (p *headerParser) header() ([]Declaration, error) {
	var decls []Declaration
	for p.hasPrefix("##") {
		d, err := p.declaration()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return nil, p.errorf("expected at least one ## declaration")
	}

	samples, err := p.headerLine()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.errorf("unexpected text after #CHROM line")
	}
	return append(decls, samples), nil
}

// declaration dispatches on a one-line lookahead. Structured prefixes must
// parse as their rule and are never demoted to meta.
func (p *headerParser) declaration() (Declaration, error) {
	switch {
	case p.hasPrefix("##INFO="):
		def, err := p.fieldDef("##INFO=<ID=")
		if err != nil {
			return nil, err
		}
		return InfoDecl{def}, nil
	case p.hasPrefix("##FORMAT="):
		def, err := p.fieldDef("##FORMAT=<ID=")
		if err != nil {
			return nil, err
		}
		return FormatDecl{def}, nil
	case p.hasPrefix("##FILTER="):
		return p.filter()
	default:
		return p.meta()
	}
}

// meta := "##" ident "=" rest-of-line
func (p *headerParser) meta() (Declaration, error) {
	if err := p.expect("##"); err != nil {
		return nil, err
	}
	key, err := p.ident("meta key")
	if err != nil {
		return nil, err
	}
	if err := p.expect("="); err != nil {
		return nil, err
	}
	value := p.restOfLine()
	if value == "" {
		return nil, p.errorf("empty value for ##%s", key)
	}
	if err := p.endOfLine(); err != nil {
		return nil, err
	}
	return MetaDecl{Key: key, Value: value}, nil
}

// info/format := prefix ident ",Number=" number ",Type=" type ",Description=" quoted extra* ">"
func (p *headerParser) fieldDef(prefix string) (FieldDef, error) {
	var def FieldDef
	if err := p.expect(prefix); err != nil {
		return def, err
	}
	var err error
	if def.ID, err = p.ident("ID"); err != nil {
		return def, err
	}
	if err = p.expect(",Number="); err != nil {
		return def, err
	}
	if def.Number, err = p.number(); err != nil {
		return def, err
	}
	if err = p.expect(",Type="); err != nil {
		return def, err
	}
	if def.Type, err = p.valueType(); err != nil {
		return def, err
	}
	if err = p.expect(",Description="); err != nil {
		return def, err
	}
	if def.Description, err = p.quoted(); err != nil {
		return def, err
	}
	if def.Extra, err = p.extraAttributes(); err != nil {
		return def, err
	}
	return def, p.closeDeclaration()
}

// filter := "##FILTER=<ID=" ident ",Description=" quoted extra* ">"
func (p *headerParser) filter() (Declaration, error) {
	var f FilterDecl
	if err := p.expect("##FILTER=<ID="); err != nil {
		return nil, err
	}
	var err error
	if f.ID, err = p.ident("ID"); err != nil {
		return nil, err
	}
	if err = p.expect(",Description="); err != nil {
		return nil, err
	}
	if f.Description, err = p.quoted(); err != nil {
		return nil, err
	}
	if f.Extra, err = p.extraAttributes(); err != nil {
		return nil, err
	}
	return f, p.closeDeclaration()
}

// extraAttributes := ("," ident "=" (quoted | bare))*
func (p *headerParser) extraAttributes() ([]Attribute, error) {
	var attrs []Attribute
	for p.hasPrefix(",") {
		p.pos++
		key, err := p.ident("attribute key")
		if err != nil {
			return nil, err
		}
		if err := p.expect("="); err != nil {
			return nil, err
		}
		var value string
		if p.hasPrefix(`"`) {
			if value, err = p.quoted(); err != nil {
				return nil, err
			}
		} else {
			start := p.pos
			for !p.eof() && !strings.ContainsRune(",>\n", rune(p.src[p.pos])) {
				p.pos++
			}
			value = p.src[start:p.pos]
		}
		attrs = append(attrs, Attribute{Key: key, Value: value})
	}
	return attrs, nil
}

func (p *headerParser) closeDeclaration() error {
	if err := p.expect(">"); err != nil {
		return err
	}
	return p.endOfLine()
}

// headerLine := "#" fixed-columns ("\tFORMAT" ("\t" sample)+)? EOL
func (p *headerParser) headerLine() (SamplesDecl, error) {
	if !p.hasPrefix("#") || p.hasPrefix("##") {
		return SamplesDecl{}, p.errorf("expected #CHROM header line")
	}
	if err := p.expect("#" + strings.Join(FixedColumns, "\t")); err != nil {
		return SamplesDecl{}, err
	}

	names := []string{}
	if p.hasPrefix("\tFORMAT") {
		p.pos += len("\tFORMAT")
		for p.hasPrefix("\t") {
			p.pos++
			name := p.sampleName()
			if name == "" {
				return SamplesDecl{}, p.errorf("empty sample name")
			}
			names = append(names, name)
		}
		if len(names) == 0 {
			return SamplesDecl{}, p.errorf("FORMAT column without samples")
		}
	}
	return SamplesDecl{Names: names}, p.endOfLine()
}

// quoted := '"' ('\' any | not-quote)* '"', returning the unescaped interior.
func (p *headerParser) quoted() (string, error) {
	if err := p.expect(`"`); err != nil {
		return "", err
	}
	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.pos++
			return sb.String(), nil
		case c == '\\' && p.pos+1 < len(p.src):
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case c == '\n':
			return "", p.errorf("unterminated quoted string")
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated quoted string")
}

// ident := [A-Za-z0-9_.]+
func (p *headerParser) ident(what string) (string, error) {
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected %s", what)
	}
	return p.src[start:p.pos], nil
}

// number := [0-9]+ | "." | "A" | "R" | "G"
func (p *headerParser) number() (NumberSpec, error) {
	if p.eof() {
		return NumberSpec{}, p.errorf("expected Number")
	}
	switch p.src[p.pos] {
	case '.':
		p.pos++
		return NumberSpec{Kind: NumberUnbounded}, nil
	case 'A':
		p.pos++
		return NumberSpec{Kind: NumberPerAllele}, nil
	case 'R':
		p.pos++
		return NumberSpec{Kind: NumberPerAlleleRef}, nil
	case 'G':
		p.pos++
		return NumberSpec{Kind: NumberPerGenotype}, nil
	}

	start := p.pos
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return NumberSpec{}, p.errorf("expected Number")
	}
	n, err := normalizeCount(p.src[start:p.pos])
	if err != nil {
		return NumberSpec{}, p.errorf("invalid Number %q: %v", p.src[start:p.pos], err)
	}
	return Fixed(n), nil
}

// normalizeCount strips leading zeros from a digit run ("007" -> 7).
func normalizeCount(digits string) (int, error) {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmed)
}

func (p *headerParser) valueType() (ValueType, error) {
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	t, ok := ParseValueType(word)
	if !ok {
		return InvalidType, p.errorf("unknown Type %q", word)
	}
	return t, nil
}

func (p *headerParser) sampleName() string {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *headerParser) restOfLine() string {
	start := p.pos
	for !p.eof() && p.src[p.pos] != '\n' {
		p.pos++
	}
	return strings.TrimSuffix(p.src[start:p.pos], "\r")
}

// endOfLine consumes "\n" or "\r\n"; end of input also terminates a line.
func (p *headerParser) endOfLine() error {
	switch {
	case p.hasPrefix("\r\n"):
		p.pos += 2
	case p.hasPrefix("\n"):
		p.pos++
	case p.eof():
		return nil
	default:
		return p.errorf("unexpected %q at end of line", p.src[p.pos])
	}
	p.line++
	return nil
}

func (p *headerParser) expect(s string) error {
	if !p.hasPrefix(s) {
		return p.errorf("expected %q", s)
	}
	p.pos += len(s)
	return nil
}

func (p *headerParser) hasPrefix(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *headerParser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *headerParser) errorf(format string, args ...any) error {
	return &HeaderSyntaxError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.'
}
