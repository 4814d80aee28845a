// Package casing reads and rewrites JSON payloads whose field names arrive in
// PascalCase or camelCase depending on the backend endpoint.
package casing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToCamel converts a PascalCase or camelCase key to camelCase.
// A leading initialism is lowered as a whole and a trailing "ID" becomes "Id".
func ToCamel(key string) string {
	if key == "" {
		return key
	}
	runes := []rune(key)
	upperRun := 0
	for upperRun < len(runes) && unicode.IsUpper(runes[upperRun]) {
		upperRun++
	}
	switch {
	case upperRun == 0:
	case upperRun == len(runes):
		return strings.ToLower(key)
	case upperRun == 1:
		runes[0] = unicode.ToLower(runes[0])
	case string(runes[upperRun:]) == "s":
		// "IDs", "URLs": a pluralized initialism.
		return strings.ToLower(key)
	default:
		// "URLPath": keep the last capital as the start of the next word.
		for i := 0; i < upperRun-1; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
		if !unicode.IsLetter(runes[upperRun]) {
			runes[upperRun-1] = unicode.ToLower(runes[upperRun-1])
		}
	}
	out := string(runes)
	switch {
	case len(out) > 2 && strings.HasSuffix(out, "ID"):
		out = out[:len(out)-2] + "Id"
	case len(out) > 3 && strings.HasSuffix(out, "IDs"):
		out = out[:len(out)-3] + "Ids"
	}
	return out
}

// ToPascal converts a camelCase key to PascalCase.
func ToPascal(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// Camelize rewrites every object key in a decoded JSON value to camelCase.
func Camelize(v any) any {
	return rewriteKeys(v, ToCamel)
}

// Pascalize rewrites every object key in a decoded JSON value to PascalCase.
func Pascalize(v any) any {
	return rewriteKeys(v, ToPascal)
}

func rewriteKeys(v any, rename func(string) string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[rename(k)] = rewriteKeys(inner, rename)
		}
		return out
	case Record:
		return Record(rewriteKeys(map[string]any(val), rename).(map[string]any))
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = rewriteKeys(inner, rename)
		}
		return out
	default:
		return v
	}
}
