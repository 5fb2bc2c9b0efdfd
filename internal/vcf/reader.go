package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Reader reads a VCF stream: it parses the header into a Schema, then decodes
// one record per Next call.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	schema     *Schema
	headerText string
	lineNumber int
	pending    *string // first body line, read while scanning for the header end
	logger     *zap.Logger
}

// Open creates a Reader for the file at path. "-" reads stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader creates a Reader from an io.Reader and parses its header.
func NewReader(rd io.Reader) (*Reader, error) {
	r := &Reader{
		reader: bufio.NewReader(rd),
		logger: zap.NewNop(),
	}

	if err := r.readHeader(); err != nil {
		return nil, err
	}

	return r, nil
}

// SetLogger sets the logger for debug messages.
func (r *Reader) SetLogger(l *zap.Logger) {
	r.logger = l
	r.logger.Debug("parsed vcf header",
		zap.Int("info", len(r.schema.info)),
		zap.Int("format", len(r.schema.format)),
		zap.Int("filter", len(r.schema.filter)),
		zap.Int("samples", len(r.schema.samples)))
}

// readHeader collects every leading '#' line and builds the Schema.
// The first non-header line is kept for the next ReadLine.
func (r *Reader) readHeader() error {
	var sb strings.Builder
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			break
		}

		if !strings.HasPrefix(line, "#") {
			r.pending = &line
			break
		}
		r.lineNumber++
		sb.WriteString(line)

		if err == io.EOF {
			break
		}
	}

	r.headerText = sb.String()
	schema, err := ParseSchema(r.headerText)
	if err != nil {
		return fmt.Errorf("parse header: %w", err)
	}
	r.schema = schema
	return nil
}

// ReadLine returns the next non-empty body line, without its terminator,
// and its 1-based line number. It returns io.EOF at end of input.
func (r *Reader) ReadLine() (string, int, error) {
	for {
		var line string
		if r.pending != nil {
			line = *r.pending
			r.pending = nil
		} else {
			var err error
			line, err = r.reader.ReadString('\n')
			if err != nil && (err != io.EOF || line == "") {
				if err == io.EOF {
					return "", r.lineNumber, io.EOF
				}
				return "", r.lineNumber, fmt.Errorf("read variant line: %w", err)
			}
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue // Skip empty lines
		}
		return line, r.lineNumber, nil
	}
}

// Next reads and decodes the next record.
// Returns nil, nil when there are no more records.
func (r *Reader) Next() (*Record, error) {
	line, n, err := r.ReadLine()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec, err := Decode(r.schema, line)
	if err != nil {
		return nil, &ParseError{Line: n, Err: err}
	}
	return rec, nil
}

// Schema returns the schema built from the header.
func (r *Reader) Schema() *Schema {
	return r.schema
}

// HeaderText returns the raw header block.
func (r *Reader) HeaderText() string {
	return r.headerText
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the underlying file, if the Reader opened one.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
