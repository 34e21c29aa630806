package frame

import (
	"math"
	"strconv"
	"strings"
)

// The coercion helpers below implement the best-effort cleaning policy:
// each returns the converted value and ok=false when the input cannot be
// converted, in which case the caller stores null. They never panic and
// never return an error.

// ToInt64 converts a cell to int64. Numeric strings with a fractional
// part are accepted only when the fraction is zero ("12.0" -> 12).
func ToInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int64:
		return x, true
	case float64:
		if math.Trunc(x) != x || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, false
		}
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if fl, err := strconv.ParseFloat(s, 64); err == nil && math.Trunc(fl) == fl {
			return int64(fl), true
		}
		return 0, false
	}
	return 0, false
}

// ToFloat64 converts a cell to float64.
func ToFloat64(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		fl, err := strconv.ParseFloat(s, 64)
		return fl, err == nil
	}
	return 0, false
}

// ToTrimmedString converts a cell to a whitespace-trimmed string. Empty
// and whitespace-only strings become null.
func ToTrimmedString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// ToBool converts an integer-semantic cell to bool: zero is false,
// any other integer is true.
func ToBool(v interface{}) (bool, bool) {
	n, ok := ToInt64(v)
	if !ok {
		return false, false
	}
	return n != 0, true
}

// ParseList parses the textual representation of a list of strings as
// produced by Python, e.g. "['Overgrow', 'Chlorophyll']". Both single
// and double quoted elements are accepted, with backslash escapes.
func ParseList(v interface{}) ([]string, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, false
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []string{}, true
	}

	var out []string
	i := 0
	for {
		for i < len(inner) && (inner[i] == ' ' || inner[i] == '\t') {
			i++
		}
		if i >= len(inner) {
			return nil, false // trailing comma or lone whitespace
		}
		quote := inner[i]
		if quote != '\'' && quote != '"' {
			return nil, false
		}
		i++
		var elem strings.Builder
		closed := false
		for i < len(inner) {
			c := inner[i]
			if c == '\\' && i+1 < len(inner) {
				elem.WriteByte(inner[i+1])
				i += 2
				continue
			}
			if c == quote {
				closed = true
				i++
				break
			}
			elem.WriteByte(c)
			i++
		}
		if !closed {
			return nil, false
		}
		out = append(out, elem.String())
		for i < len(inner) && (inner[i] == ' ' || inner[i] == '\t') {
			i++
		}
		if i == len(inner) {
			return out, true
		}
		if inner[i] != ',' {
			return nil, false
		}
		i++
	}
}
