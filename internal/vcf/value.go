package vcf

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// MissingValue is the VCF marker for a value that is not available.
const MissingValue = "."

// ValueType is the declared scalar type of an INFO or FORMAT field.
type ValueType uint8

// The VCF field types.
const (
	InvalidType ValueType = iota
	Integer
	Float
	Flag
	Character
	String
)

var valueTypeNames = map[ValueType]string{
	Integer:   "Integer",
	Float:     "Float",
	Flag:      "Flag",
	Character: "Character",
	String:    "String",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return "Invalid"
}

// ParseValueType maps a header type keyword to its ValueType.
func ParseValueType(s string) (ValueType, bool) {
	for t, name := range valueTypeNames {
		if name == s {
			return t, true
		}
	}
	return InvalidType, false
}

// NumberKind distinguishes the forms a Number= attribute can take.
type NumberKind uint8

const (
	NumberFixed       NumberKind = iota // a literal count
	NumberUnbounded                     // "."
	NumberPerAllele                     // "A": one per alternate allele
	NumberPerAlleleRef                  // "R": one per allele including the reference
	NumberPerGenotype                   // "G": one per possible genotype
)

// NumberSpec is the declared multiplicity of a field.
type NumberSpec struct {
	Kind NumberKind
	N    int // only meaningful for NumberFixed
}

// Fixed returns a NumberSpec for a literal count.
func Fixed(n int) NumberSpec {
	return NumberSpec{Kind: NumberFixed, N: n}
}

// IsFlag reports whether the field carries no value (Number=0).
func (n NumberSpec) IsFlag() bool {
	return n.Kind == NumberFixed && n.N == 0
}

// IsScalar reports whether the field carries exactly one value (Number=1).
func (n NumberSpec) IsScalar() bool {
	return n.Kind == NumberFixed && n.N == 1
}

func (n NumberSpec) String() string {
	switch n.Kind {
	case NumberUnbounded:
		return "."
	case NumberPerAllele:
		return "A"
	case NumberPerAlleleRef:
		return "R"
	case NumberPerGenotype:
		return "G"
	default:
		return strconv.Itoa(n.N)
	}
}

// Kind identifies the payload held by a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindInteger
	KindFloat
	KindFlag
	KindCharacter
	KindString
	KindList
)

// Value is a decoded field value: a scalar, a list of values, or the missing marker.
// The zero Value is missing.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	list []Value
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// IntValue returns an Integer value.
func IntValue(i int64) Value { return Value{kind: KindInteger, i: i} }

// FloatValue returns a Float value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// FlagValue returns the value of a present Flag.
func FlagValue() Value { return Value{kind: KindFlag} }

// CharValue returns a Character value.
func CharValue(s string) Value { return Value{kind: KindCharacter, s: s} }

// StringValue returns a String value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ListValue returns a list of values.
func ListValue(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// Kind returns the payload kind.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Int returns the Integer payload.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInteger }

// Float returns the Float payload.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns true for a present Flag.
func (v Value) Bool() bool { return v.kind == KindFlag }

// Str returns the String or Character payload.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString || v.kind == KindCharacter
}

// List returns the elements of a list value.
func (v Value) List() ([]Value, bool) { return v.list, v.kind == KindList }

// Interface returns v as a plain Go value: int64, float64, bool, string,
// []any, or the string "." when missing.
func (v Value) Interface() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindFlag:
		return true
	case KindCharacter, KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	default:
		return MissingValue
	}
}

func (v Value) String() string {
	return fmt.Sprint(v.Interface())
}

// MarshalJSON encodes v through its Interface form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

var errValueRequired = errors.New("value required")

// Coerce converts raw text to the shape declared by def.
// Number=0 yields true, Number=1 a scalar, anything else a comma-separated list.
func Coerce(def FieldDef, raw string) (Value, error) {
	switch {
	case def.Number.IsFlag():
		return FlagValue(), nil
	case def.Number.IsScalar():
		return coerceScalar(def.ID, def.Type, raw)
	}

	parts := SplitQuoted(raw, ',')
	list := make([]Value, 0, len(parts))
	for _, p := range parts {
		v, err := coerceScalar(def.ID, def.Type, p)
		if err != nil {
			return Value{}, err
		}
		list = append(list, v)
	}
	return ListValue(list...), nil
}

func coerceScalar(field string, t ValueType, raw string) (Value, error) {
	switch t {
	case Integer:
		if raw == MissingValue {
			return Missing(), nil
		}
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, &ValueFormatError{Field: field, Value: raw, Err: err}
		}
		return IntValue(i), nil
	case Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, &ValueFormatError{Field: field, Value: raw, Err: err}
		}
		return FloatValue(f), nil
	case Flag:
		return FlagValue(), nil
	case Character:
		return CharValue(raw), nil
	case String:
		return StringValue(raw), nil
	default:
		return Value{}, &ValueFormatError{Field: field, Value: raw, Err: fmt.Errorf("unsupported type %s", t)}
	}
}
