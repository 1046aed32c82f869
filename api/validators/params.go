package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
)

// CleanText trims surrounding whitespace and caps the result at maxRunes
// characters. Addresses and notes are free text, so the cut never splits a
// multi-byte character. maxRunes <= 0 means no cap.
func CleanText(input string, maxRunes int) string {
	trimmed := strings.TrimSpace(input)
	if maxRunes <= 0 || utf8.RuneCountInString(trimmed) <= maxRunes {
		return trimmed
	}
	runes := []rune(trimmed)
	return strings.TrimSpace(string(runes[:maxRunes]))
}

// QueryInt reads an integer query parameter bounded by [min, max].
func QueryInt(r *http.Request, key string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be an integer", key).
			WithDetails(map[string]any{key: "must be an integer"})
	}
	if value < min || value > max {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be between %d and %d", key, min, max).
			WithDetails(map[string]any{key: "out of range", "min": min, "max": max})
	}
	return value, nil
}

// QueryBool reads an optional boolean query parameter.
func QueryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a boolean", key).
			WithDetails(map[string]any{key: "must be a boolean"})
	}
	return value, nil
}
