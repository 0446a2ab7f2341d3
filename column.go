package bookmarker

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

// ColumnKind tells which variant a ColumnSpec is.
type ColumnKind int

const (
	KindSimple ColumnKind = iota
	KindCoalesce
	KindAssociation
)

func (k ColumnKind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindCoalesce:
		return "coalesce"
	case KindAssociation:
		return "association"
	default:
		return fmt.Sprintf("ColumnKind(%d)", int(k))
	}
}

// ColumnSpec describes one ordering key. Build it with Column, Coalesce or
// Association; the zero value is not a valid spec.
type ColumnSpec struct {
	kind     ColumnKind
	name     string
	path     []string
	branches []ColumnSpec
}

// Column is a column of the paginated model's own table.
func Column(name string) ColumnSpec {
	return ColumnSpec{kind: KindSimple, name: name}
}

// Coalesce takes the first non-null value among its branches. Branches may be
// simple columns or associations, not other coalesce specs.
func Coalesce(branches ...ColumnSpec) ColumnSpec {
	return ColumnSpec{kind: KindCoalesce, branches: branches}
}

// Association is a column reached through relationship hops. The last element
// is the column name, everything before it are relationship names in
// snake_case as they appear on the model:
//
//	Association("submission", "assignment", "due_at")
func Association(path ...string) ColumnSpec {
	spec := ColumnSpec{kind: KindAssociation}
	if len(path) > 0 {
		spec.path = append([]string(nil), path[:len(path)-1]...)
		spec.name = path[len(path)-1]
	}

	return spec
}

// Kind returns the variant of the spec.
func (s ColumnSpec) Kind() ColumnKind {
	return s.kind
}

// Name returns the terminal column name of a simple or association spec.
func (s ColumnSpec) Name() string {
	return s.name
}

// Path returns the relationship hops of an association spec.
func (s ColumnSpec) Path() []string {
	return s.path
}

// Branches returns the alternatives of a coalesce spec.
func (s ColumnSpec) Branches() []ColumnSpec {
	return s.branches
}

// String renders the spec in the form accepted by ParseColumn.
func (s ColumnSpec) String() string {
	switch s.kind {
	case KindCoalesce:
		parts := lo.Map(s.branches, func(b ColumnSpec, _ int) string { return b.String() })
		return "coalesce(" + strings.Join(parts, ",") + ")"
	case KindAssociation:
		return strings.Join(append(append([]string(nil), s.path...), s.name), ".")
	default:
		return s.name
	}
}

func (s ColumnSpec) validate() error {
	switch s.kind {
	case KindSimple:
		return validateIdentifier(s.name)
	case KindAssociation:
		if len(s.path) == 0 {
			return fmt.Errorf("association column '%s' has no relationship hops", s.name)
		}
		for _, hop := range s.path {
			if err := validateIdentifier(hop); err != nil {
				return err
			}
		}

		return validateIdentifier(s.name)
	case KindCoalesce:
		if len(s.branches) == 0 {
			return fmt.Errorf("coalesce column without branches")
		}
		for _, b := range s.branches {
			if b.kind == KindCoalesce {
				return fmt.Errorf("nested coalesce in '%s' is not supported", s)
			}
			if err := b.validate(); err != nil {
				return err
			}
		}

		return nil
	default:
		return fmt.Errorf("unknown column kind %s", s.kind)
	}
}

var _availableIdentifierSymbols = append([]rune("_"), lo.AlphanumericCharset...)

// Guard against SQL injection by restricting allowed characters in identifiers.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty column identifier")
	}
	if !lo.Every(_availableIdentifierSymbols, []rune(name)) {
		return fmt.Errorf("column identifier contains forbidden symbols '%s'", name)
	}

	return nil
}

// ParseColumn builds a ColumnSpec from its textual form:
//
//	"due_at"                                -> Column("due_at")
//	"submission.assignment.due_at"          -> Association("submission", "assignment", "due_at")
//	"coalesce(due_at, assignment.due_at)"   -> Coalesce(Column("due_at"), Association("assignment", "due_at"))
func ParseColumn(s string) (ColumnSpec, error) {
	s = strings.TrimSpace(s)

	var spec ColumnSpec
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "coalesce(") && strings.HasSuffix(s, ")"):
		inner := s[len("coalesce(") : len(s)-1]
		branches := make([]ColumnSpec, 0, strings.Count(inner, ",")+1)
		for _, part := range strings.Split(inner, ",") {
			branch, err := ParseColumn(part)
			if err != nil {
				return ColumnSpec{}, err
			}
			branches = append(branches, branch)
		}
		spec = Coalesce(branches...)
	case strings.Contains(s, "."):
		spec = Association(strings.Split(s, ".")...)
	default:
		spec = Column(s)
	}

	if err := spec.validate(); err != nil {
		return ColumnSpec{}, fmt.Errorf("invalid column spec '%s': %w", s, err)
	}

	return spec, nil
}

type (
	ColumnAlias = string

	// ColumnMapping maps external column aliases to column specs in the form
	// accepted by ParseColumn. Key is an external alias, value is a spec.
	ColumnMapping = map[ColumnAlias]string
)

// ParseColumns resolves a list of external aliases through ColumnMapping.
// Returns an error naming the closest known alias if one is not found.
func ParseColumns(aliases []ColumnAlias, mapping ColumnMapping) ([]ColumnSpec, error) {
	ret := make([]ColumnSpec, 0, len(aliases))
	known := lo.Keys(mapping)

	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		raw, ok := mapping[alias]
		if !ok {
			return nil, fmt.Errorf("invalid column alias '%s'. closest: '%s'", alias, closestAlias(alias, known))
		}

		spec, err := ParseColumn(raw)
		if err != nil {
			return nil, err
		}
		ret = append(ret, spec)
	}

	return ret, nil
}

func closestAlias(input ColumnAlias, dataSet []ColumnAlias) ColumnAlias {
	minDist := math.MaxInt
	closest := ""

	for _, dataSetAlias := range dataSet {
		dist := levenshtein([]rune(dataSetAlias), []rune(input))
		if dist < minDist || (dist == minDist && dataSetAlias < closest) {
			minDist = dist
			closest = dataSetAlias
		}
	}

	return closest
}
