package bookmarker

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Compare orders two bookmarks of this key the way the database orders their
// rows: -1 if x sorts before y, 1 if after, 0 if they share a position.
// Strings compare with the Compare of the bookmarker's Collation.
func (b *Bookmarker[T]) Compare(x, y Bookmark) int {
	for i, col := range b.columns {
		var xv, yv any
		if i < len(x) {
			xv = x[i]
		}
		if i < len(y) {
			yv = y[i]
		}

		if c := b.compareValues(col, xv, yv); c != 0 {
			return c
		}
	}

	return cmp.Compare(len(x), len(y))
}

func (b *Bookmarker[T]) compareValues(col *resolvedColumn, x, y any) int {
	// The nulls policy does not depend on the scan direction.
	switch {
	case x == nil && y == nil:
		return 0
	case x == nil:
		if b.predicate.nullsFirst {
			return -1
		}
		return 1
	case y == nil:
		if b.predicate.nullsFirst {
			return 1
		}
		return -1
	}

	c := compareScalars(b.predicate.collation, col.info.Type, x, y)
	if b.key.IsDescending() {
		return -c
	}

	return c
}

func compareScalars(collation Collation, t ColumnType, x, y any) int {
	if collation == nil {
		collation = NoCollation
	}

	if t == TypeDatetime || isTime(x) || isTime(y) {
		if xt, ok := asTime(x); ok {
			if yt, ok := asTime(y); ok {
				return xt.Compare(yt)
			}
		}
	}

	if xi, ok := integerValue(x); ok {
		if yi, ok := integerValue(y); ok {
			return cmp.Compare(xi, yi)
		}
	}
	if xf, ok := floatOperand(t, x); ok {
		if yf, ok := floatOperand(t, y); ok {
			return cmp.Compare(xf, yf)
		}
	}

	if xb, ok := x.(bool); ok {
		if yb, ok := y.(bool); ok {
			switch {
			case xb == yb:
				return 0
			case !xb:
				return -1
			default:
				return 1
			}
		}
	}

	if xs, ok := x.(string); ok {
		if ys, ok := y.(string); ok {
			return collation.Compare(xs, ys)
		}
	}

	return collation.Compare(fmt.Sprint(x), fmt.Sprint(y))
}

func floatOperand(t ColumnType, v any) (float64, bool) {
	if f, ok := floatValue(v); ok {
		return f, true
	}
	if t == TypeFloat {
		return nonFiniteFloat(v)
	}

	return 0, false
}

func isTime(v any) bool {
	_, ok := v.(time.Time)
	return ok
}

func asTime(v any) (time.Time, bool) {
	switch vt := v.(type) {
	case time.Time:
		return vt, true
	case string:
		return parseDatetime(vt)
	default:
		return time.Time{}, false
	}
}

// Sort orders items by their bookmarks in place. Items sharing a position
// keep their relative order.
func (b *Bookmarker[T]) Sort(items []T) {
	type keyed struct {
		item     T
		bookmark Bookmark
	}

	pairs := make([]keyed, 0, len(items))
	for _, item := range items {
		pairs = append(pairs, keyed{item: item, bookmark: b.BookmarkFor(item)})
	}

	slices.SortStableFunc(pairs, func(x, y keyed) int {
		return b.Compare(x.bookmark, y.bookmark)
	})

	for i := range pairs {
		items[i] = pairs[i].item
	}
}
