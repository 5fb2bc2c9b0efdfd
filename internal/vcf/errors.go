package vcf

import "fmt"

// HeaderSyntaxError reports header text that does not match the VCF header grammar.
type HeaderSyntaxError struct {
	Line    int // 1-based line within the header text
	Message string
}

func (e *HeaderSyntaxError) Error() string {
	return fmt.Sprintf("vcf header syntax error at line %d: %s", e.Line, e.Message)
}

// RecordShapeError reports a record line whose columns do not fit the schema.
type RecordShapeError struct {
	Message string
}

func (e *RecordShapeError) Error() string {
	return "vcf record shape error: " + e.Message
}

// UnknownFieldError reports an INFO or FORMAT id with no header declaration.
type UnknownFieldError struct {
	Section string // "INFO" or "FORMAT"
	ID      string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("vcf %s field %q is not declared in the header", e.Section, e.ID)
}

// ValueFormatError reports a value that cannot be coerced to its declared type.
type ValueFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *ValueFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vcf value error in %s: %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("vcf value error in %s: %q", e.Field, e.Value)
}

func (e *ValueFormatError) Unwrap() error {
	return e.Err
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
