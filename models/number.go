package models

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// numericPrefixRegexp captures the leading decimal literal of a cell, the
	// way a lenient float parser reads "12.5 km" as 12.5.
	numericPrefixRegexp = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)
	// leadingDigitsRegexp measures the digit run after a comma.
	leadingDigitsRegexp = regexp.MustCompile(`^\d*`)
)

// ParseNumber reads a cell as a number.
// Numbers pass through unchanged; empty and boolean cells are not numeric;
// text is cleaned (see ParseNumericString) and parsed.
func ParseNumber(v Value) (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		return ParseNumericString(v.str)
	default:
		return 0, false
	}
}

// ParseNumericString strips whitespace and thousands-separator commas, then
// parses the leading numeric literal. A single comma that cannot be a
// thousands separator is read as a decimal comma.
//
//	"1,234.5" → 1234.5
//	"5,0"     → 5
//	" 12 km"  → 12
//	"abc", "" → not numeric
func ParseNumericString(raw string) (float64, bool) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	s = normaliseCommas(s)

	match := numericPrefixRegexp.FindString(s)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// normaliseCommas departs from plain comma stripping in one case: a single
// comma followed by a digit run that is not three long, with no '.', is a
// decimal comma. So "1,5" reads as 1.5 where stripping would give 15.
func normaliseCommas(s string) string {
	n := strings.Count(s, ",")
	if n == 0 {
		return s
	}
	if n == 1 && !strings.Contains(s, ".") {
		idx := strings.IndexByte(s, ',')
		digits := leadingDigitsRegexp.FindString(s[idx+1:])
		if idx > 0 && len(digits) > 0 && len(digits) != 3 {
			return s[:idx] + "." + s[idx+1:]
		}
	}
	return strings.ReplaceAll(s, ",", "")
}
