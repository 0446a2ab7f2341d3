package bookmarker

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation is the order of textual column values. Wrap applies it to a SQL
// expression (a column or the bound placeholder), Compare reproduces the same
// order in memory. Compare returns 0 exactly for the strings the database
// considers equal under the collation.
type Collation interface {
	Wrap(expr string) string
	Compare(x, y string) int
}

type collation struct {
	wrap    func(expr string) string
	compare func(x, y string) int
}

func (c collation) Wrap(expr string) string {
	return c.wrap(expr)
}

func (c collation) Compare(x, y string) int {
	return c.compare(x, y)
}

// NoCollation leaves expressions untouched and compares bytes. This is the
// SQLite default (BINARY).
var NoCollation Collation = collation{
	wrap:    func(expr string) string { return expr },
	compare: strings.Compare,
}

// PostgresCollation uses a named collation, e.g. the predefined "und-x-icu" or
// a custom "und-u-kn-true" created for numeric aware ordering. ICU collation
// names are mapped to the matching Unicode collator. Ties are broken by bytes,
// as in deterministic PostgreSQL collations.
func PostgresCollation(name string) Collation {
	var compare func(x, y string) int
	switch name {
	case "C", "POSIX", "ucs_basic":
		compare = strings.Compare
	default:
		compare = deterministic(unicodeCompare(icuTag(name)))
	}

	return collation{
		wrap: func(expr string) string {
			return fmt.Sprintf(`(%s COLLATE "%s")`, expr, name)
		},
		compare: compare,
	}
}

// MySQLCollation uses a named MySQL collation, e.g. "utf8mb4_bin" or
// "utf8mb4_unicode_ci". Case insensitive ("_ci") collations make strings that
// differ in case or accents tie.
func MySQLCollation(name string) Collation {
	var compare func(x, y string) int
	switch {
	case strings.HasSuffix(name, "_bin"):
		compare = strings.Compare
	case strings.HasSuffix(name, "_as_ci"):
		compare = unicodeCompare(language.Und, collate.IgnoreCase)
	case strings.HasSuffix(name, "_ci"):
		compare = unicodeCompare(language.Und, collate.Loose)
	default:
		compare = deterministic(unicodeCompare(language.Und))
	}

	return collation{
		wrap: func(expr string) string {
			return fmt.Sprintf("%s COLLATE %s", expr, name)
		},
		compare: compare,
	}
}

// SQLiteCollation uses a builtin SQLite collation: "BINARY", "NOCASE" or
// "RTRIM".
func SQLiteCollation(name string) Collation {
	var compare func(x, y string) int
	switch strings.ToUpper(name) {
	case "NOCASE":
		// NOCASE folds ASCII letters only.
		compare = func(x, y string) int {
			return strings.Compare(asciiLower(x), asciiLower(y))
		}
	case "RTRIM":
		compare = func(x, y string) int {
			return strings.Compare(strings.TrimRight(x, " "), strings.TrimRight(y, " "))
		}
	default:
		compare = strings.Compare
	}

	return collation{
		wrap: func(expr string) string {
			return fmt.Sprintf("%s COLLATE %s", expr, name)
		},
		compare: compare,
	}
}

// The defaults are deterministic: only identical strings tie.
func defaultCollation(dialect string) Collation {
	switch dialect {
	case "postgres":
		return PostgresCollation("und-x-icu")
	case "mysql":
		return MySQLCollation("utf8mb4_bin")
	default:
		return NoCollation
	}
}

// icuTag reads the BCP 47 tag of an ICU collation name ("und-u-kn-true",
// "en-US-x-icu").
func icuTag(name string) language.Tag {
	tag, err := language.Parse(strings.TrimSuffix(name, "-x-icu"))
	if err != nil {
		return language.Und
	}

	return tag
}

// unicodeCompare compares with a Unicode collator. Collators are not safe for
// concurrent use, so each comparison borrows one from a pool.
func unicodeCompare(tag language.Tag, opts ...collate.Option) func(x, y string) int {
	pool := &sync.Pool{
		New: func() any {
			return collate.New(tag, opts...)
		},
	}

	return func(x, y string) int {
		collator := pool.Get().(*collate.Collator)
		defer pool.Put(collator)

		return collator.CompareString(x, y)
	}
}

func deterministic(compare func(x, y string) int) func(x, y string) int {
	return func(x, y string) int {
		if c := compare(x, y); c != 0 {
			return c
		}

		return strings.Compare(x, y)
	}
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + 'a' - 'A'
		}

		return r
	}, s)
}
