package bookmarker

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var _datetimeLayouts = []string{
	BookmarkTimeLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// parseDatetime reads a bookmark datetime. Bookmarks without a zone are UTC.
func parseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range _datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}

	t, err := now.ParseInLocation(time.UTC, s)
	if err != nil {
		return time.Time{}, false
	}

	return t.UTC(), true
}

// coerceValue converts a bookmark value to the Go type matching the declared
// column type so drivers do not reject the bind parameter.
func coerceValue(t ColumnType, v any) any {
	if n, ok := v.(json.Number); ok {
		v = numberValue(n)
	}

	switch t {
	case TypeString, TypeText:
		if i, ok := integerValue(v); ok {
			return strconv.FormatInt(i, 10)
		}
	case TypeInteger:
		switch vt := v.(type) {
		case string:
			return leadingInteger(vt)
		case float32, float64:
			if i, ok := integerValue(vt); ok {
				return i
			}
		}
	case TypeFloat:
		if s, ok := v.(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f
			}
		}
	case TypeDatetime:
		if s, ok := v.(string); ok {
			if dt, ok := parseDatetime(s); ok {
				return dt
			}
		}
	}

	return v
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}

	return n.String()
}

// integerValue reports whether v holds a whole number and returns it.
func integerValue(v any) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		v = numberValue(n)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}

		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}

		return int64(f), true
	default:
		return 0, false
	}
}

// floatValue reports whether v holds any number and returns it as float64.
func floatValue(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// nonFiniteFloat reads the string form bookmarks use for NaN and infinities.
func nonFiniteFloat(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !(math.IsNaN(f) || math.IsInf(f, 0)) {
		return 0, false
	}

	return f, true
}

// leadingInteger parses the optional sign and digits a string starts with.
// Anything unparsable is 0.
func leadingInteger(s string) int64 {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	i, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}

	return i
}
