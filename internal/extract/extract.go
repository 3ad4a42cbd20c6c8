// Package extract pulls fields out of loosely-typed upstream JSON using
// ordered path rules. The first rule that yields a non-empty value wins.
package extract

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Path addresses a value inside decoded JSON. Segments are object keys, or
// decimal indexes when the current node is an array.
type Path []string

// P builds a Path from a dotted expression, e.g. "artists.0.name".
func P(expr string) Path {
	return strings.Split(expr, ".")
}

// Lookup walks node along path and returns the value found, or nil.
func Lookup(node interface{}, path Path) interface{} {
	cur := node
	for _, seg := range path {
		switch v := cur.(type) {
		case map[string]interface{}:
			cur = v[seg]
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil
			}
			cur = v[i]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// String renders scalars as trimmed strings; other shapes yield "".
func String(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

// FirstString returns the first non-empty string found along paths.
func FirstString(node interface{}, paths ...Path) string {
	for _, p := range paths {
		if s := String(Lookup(node, p)); s != "" {
			return s
		}
	}
	return ""
}

// FirstInt returns the first numeric value found along paths. Numeric strings
// are accepted.
func FirstInt(node interface{}, paths ...Path) (int, bool) {
	for _, p := range paths {
		switch v := Lookup(node, p).(type) {
		case float64:
			return int(v), true
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n), true
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// FirstList returns the first array found along paths.
func FirstList(node interface{}, paths ...Path) []interface{} {
	for _, p := range paths {
		if l, ok := Lookup(node, p).([]interface{}); ok {
			return l
		}
	}
	return nil
}

// Strings collects String(field) for each element of list. Elements that are
// plain strings are taken as-is.
func Strings(list []interface{}, field string) []string {
	var out []string
	for _, item := range list {
		s := String(item)
		if s == "" && field != "" {
			s = String(Lookup(item, Path{field}))
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
