package bookmarker

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// BookmarkTimeLayout is the fixed precision UTC form datetimes take inside a
// bookmark. It keeps bookmarks stable across JSON round trips.
const BookmarkTimeLayout = "2006-01-02 15:04:05.000000"

var _encoder = base64.RawURLEncoding

// Bookmark is the position of an entity in a SortKey: one scalar per column
// spec, nil where the entity has no value. A nil Bookmark means "start of the
// collection".
type Bookmark []any

// DecodeBookmark parses a token produced by Bookmark.String. An empty token
// decodes to a nil bookmark. Numbers are kept as json.Number.
func DecodeBookmark(token string) (Bookmark, error) {
	if len(token) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded bookmark: %w", err)
	}

	return ParseBookmarkJSON(jsonData)
}

// ParseBookmarkJSON parses a bookmark from its JSON array form.
func ParseBookmarkJSON(data []byte) (Bookmark, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json encoded bookmark: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("failed to unmarshal json encoded bookmark: trailing data")
	}
	if values == nil {
		return nil, fmt.Errorf("failed to unmarshal json encoded bookmark: not an array")
	}

	return values, nil
}

// Token returns the base64url token of the bookmark, or "" for an empty
// bookmark. It fails when a value has no JSON form.
func (b Bookmark) Token() (string, error) {
	if len(b) == 0 {
		return "", nil
	}

	jTok, err := json.Marshal([]any(b))
	if err != nil {
		return "", fmt.Errorf("cannot marshal bookmark value: %w", err)
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, jTok); err != nil {
		return "", fmt.Errorf("cannot compact bookmark value: %w", err)
	}

	return _encoder.EncodeToString(buf.Bytes()), nil
}

// String - implements fmt.Stringer. Same as Token, panics on error.
// Bookmarks built by BookmarkFor always have a token.
func (b Bookmark) String() string {
	token, err := b.Token()
	if err != nil {
		panic(err)
	}

	return token
}

// IsEmpty reports whether the bookmark carries no position.
func (b Bookmark) IsEmpty() bool {
	return len(b) == 0
}

var _ fmt.Stringer = Bookmark(nil)

// formatBookmarkValue turns a raw column value into its bookmark form.
// Non-finite floats have no JSON number form and become "NaN", "+Inf" or
// "-Inf".
func formatBookmarkValue(v any) any {
	switch vt := v.(type) {
	case time.Time:
		return vt.UTC().Format(BookmarkTimeLayout)
	case []byte:
		return string(vt)
	case float64:
		if math.IsNaN(vt) || math.IsInf(vt, 0) {
			return strconv.FormatFloat(vt, 'g', -1, 64)
		}
		return vt
	case float32:
		if f := float64(vt); math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return vt
	default:
		return v
	}
}
