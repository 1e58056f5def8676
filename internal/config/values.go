package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

const secretMask = "********"

// ParseValue converts command line text into a value of the field's kind.
func ParseValue(f *Field, raw string) (any, error) {
	switch f.Kind {
	case Bool:
		return strconv.ParseBool(strings.TrimSpace(raw))
	case String:
		return raw, nil
	case Select:
		return parseSelect(f, raw)
	case Duration:
		return parseDuration(raw)
	case StringSlice:
		return parseList(raw), nil
	case StringMap:
		return nil, fmt.Errorf("%q is a collection type and cannot be set directly", f.Key)
	}
	return nil, fmt.Errorf("unknown kind %d", f.Kind)
}

func parseSelect(f *Field, raw string) (string, error) {
	if slices.Contains(f.Options, raw) {
		return raw, nil
	}
	return "", fmt.Errorf("must be one of: %s", strings.Join(f.Options, ", "))
}

func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FormatValue renders a value the way it would appear in the config file.
func FormatValue(f *Field, val any) string {
	switch v := val.(type) {
	case bool:
		return strconv.FormatBool(v)
	case string:
		return strconv.Quote(v)
	case time.Duration:
		return strconv.Quote(v.String())
	case []string:
		return formatList(v)
	case map[string]string:
		return formatMap(v)
	}
	return fmt.Sprintf("%v", val)
}

func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func formatMap(m map[string]string) string {
	if len(m) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		lines = append(lines, fmt.Sprintf("  %s = %s", k, strconv.Quote(m[k])))
	}
	return strings.Join(lines, "\n")
}

// DisplayValue is FormatValue with secret values masked.
func DisplayValue(f *Field, val any) string {
	return FormatValue(f, Masked(f, val))
}

// Masked replaces a non-empty secret value with a fixed mask.
func Masked(f *Field, val any) any {
	if s, ok := val.(string); ok && f.Secret && s != "" {
		return secretMask
	}
	return val
}
