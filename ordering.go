package bookmarker

import (
	"fmt"
	"strings"
)

// Direction defines the sort direction of a SortKey.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

func (o Direction) ForOperator() Operator {
	switch o {
	case DirectionASC:
		return OperatorGT
	case DirectionDESC:
		return OperatorLT
	default:
		panic(fmt.Errorf("cannot map direction '%s' to operator", o))
	}
}

// ParseDirection accepts "asc"/"desc" in any case. Empty input means ascending.
func ParseDirection(s string) (Direction, error) {
	if strings.TrimSpace(s) == "" {
		return DirectionASC, nil
	}

	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid ordering direction '%s'", s)
	}

	return d, nil
}

// SortKey is an ordered list of column specs with one direction applied to
// all of them. It must end with a column that makes the order total (usually
// the primary key), otherwise rows sharing a position can be skipped.
type SortKey struct {
	Columns   []ColumnSpec
	Direction Direction
}

// Ascending builds an ascending SortKey.
func Ascending(columns ...ColumnSpec) SortKey {
	return SortKey{Columns: columns, Direction: DirectionASC}
}

// Descending builds a descending SortKey.
func Descending(columns ...ColumnSpec) SortKey {
	return SortKey{Columns: columns, Direction: DirectionDESC}
}

// IsDescending reports whether the key scans in descending order.
func (k SortKey) IsDescending() bool {
	return k.Direction == DirectionDESC
}

func (k SortKey) String() string {
	parts := make([]string, 0, len(k.Columns))
	for _, c := range k.Columns {
		parts = append(parts, c.String())
	}

	return fmt.Sprintf("[%s] %s", strings.Join(parts, ", "), k.Direction)
}

func (k SortKey) validate() error {
	if len(k.Columns) == 0 {
		return fmt.Errorf("empty ordering list")
	}
	if !k.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", k.Direction)
	}

	for _, c := range k.Columns {
		if err := c.validate(); err != nil {
			return err
		}
	}

	return nil
}
