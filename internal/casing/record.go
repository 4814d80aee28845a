package casing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is a decoded JSON object whose keys may use either casing.
type Record map[string]any

// AsRecord returns v as a Record when it is a JSON object.
func AsRecord(v any) (Record, bool) {
	switch val := v.(type) {
	case Record:
		return val, true
	case map[string]any:
		return Record(val), true
	}
	return nil, false
}

// Lookup returns the first value found for any of names. Each name is tried as
// given, in camelCase, in PascalCase and finally case-insensitively, so "id"
// also matches "Id" and "ID".
func (r Record) Lookup(names ...string) (any, bool) {
	if r == nil {
		return nil, false
	}
	for _, name := range names {
		for _, candidate := range [...]string{name, ToCamel(name), ToPascal(name)} {
			if v, ok := r[candidate]; ok {
				return v, true
			}
		}
	}
	for _, name := range names {
		for k, v := range r {
			if strings.EqualFold(k, name) {
				return v, true
			}
		}
	}
	return nil, false
}

// Has reports whether any of names is present, even with a null value.
func (r Record) Has(names ...string) bool {
	_, ok := r.Lookup(names...)
	return ok
}

// String returns the first non-null value for names as a string, or "".
func (r Record) String(names ...string) string {
	s, _ := r.LookupString(names...)
	return s
}

// LookupString is String that also reports whether a non-null value was present.
func (r Record) LookupString(names ...string) (string, bool) {
	v, ok := r.Lookup(names...)
	if !ok || v == nil {
		return "", false
	}
	return ToString(v), true
}

// Bool returns the value for names interpreted as a boolean.
func (r Record) Bool(names ...string) (bool, bool) {
	v, ok := r.Lookup(names...)
	if !ok || v == nil {
		return false, false
	}
	return ToBool(v)
}

// Record returns the nested object stored under names, or nil.
func (r Record) Record(names ...string) Record {
	v, ok := r.Lookup(names...)
	if !ok {
		return nil
	}
	nested, _ := AsRecord(v)
	return nested
}

// ToString converts a decoded JSON scalar to its string form. Integral numbers
// render without a decimal point.
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return ToString(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ToBool converts a decoded JSON scalar to a boolean. The second result is
// false when v has no boolean reading.
func ToBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	case json.Number:
		n, err := val.Int64()
		return n != 0, err == nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "active":
			return true, true
		case "false", "0", "no", "inactive":
			return false, true
		}
	}
	return false, false
}
