package vcf

import "strings"

// SplitQuoted splits raw on sep, treating double-quoted spans as atomic.
//
// Inside a quoted span a backslash escapes the following byte, so an escaped
// quote or separator does not end the span. Quoted spans are kept verbatim,
// quotes included, and join any unquoted text next to them into one token.
// A trailing line terminator is dropped first; empty input yields no tokens.
func SplitQuoted(raw string, sep byte) []string {
	raw = strings.TrimSuffix(raw, "\n")
	raw = strings.TrimSuffix(raw, "\r")
	if raw == "" {
		return nil
	}

	// Fast path: nothing to protect.
	if strings.IndexByte(raw, '"') < 0 {
		return strings.Split(raw, string(sep))
	}

	var tokens []string
	start := 0
	inQuote := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case inQuote && c == '\\':
			i++ // skip escaped byte
		case c == '"':
			inQuote = !inQuote
		case !inQuote && c == sep:
			tokens = append(tokens, raw[start:i])
			start = i + 1
		}
	}
	return append(tokens, raw[start:])
}
