package bookmarker

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

type (
	tConjunct struct {
		Column   *resolvedColumn
		Value    any
		Operator Operator
	}

	tDisjunct []tConjunct

	// tDNF represents the disjunctive normal form (DNF) of the bookmark
	// predicate. Each disjunct is joined by OR, and each disjunct consists of a
	// list of conjuncts which are joined by AND.
	//
	// For a SortKey (C1, C2, C3) and a bookmark (V1, V2, V3) scanning forward:
	//
	//	DNF = (C1 > V1) OR (C1 = V1 AND C2 > V2) OR (C1 = V1 AND C2 = V2 AND C3 > V3)
	tDNF []tDisjunct

	// predicateBuilder carries the policies shared by every conjunct.
	predicateBuilder struct {
		collation  Collation
		nullsFirst bool
	}
)

// newDNF builds the lexicographic "sorts after" predicate for the bookmark.
// Position i is "every column before i equals its value, column i moves in
// the scan direction".
func newDNF(columns []*resolvedColumn, bookmark Bookmark, operator Operator) tDNF {
	dnf := make(tDNF, 0, len(columns))
	for i := range columns {
		disjunct := make(tDisjunct, 0, i+1)
		for j := 0; j < i; j++ {
			disjunct = append(disjunct, tConjunct{Column: columns[j], Value: bookmark[j], Operator: operatorEq})
		}

		disjunct = append(disjunct, tConjunct{Column: columns[i], Value: bookmark[i], Operator: operator})
		dnf = append(dnf, disjunct)
	}

	return dnf
}

// comparand applies the collation to textual operands. Equality is collated
// too: under a case insensitive collation "abc" and "ABC" tie, and the rows of
// a tie are ordered by the following columns.
func (p predicateBuilder) comparand(c *resolvedColumn, expr string) string {
	if !c.info.Type.IsTextual() || p.collation == nil {
		return expr
	}

	return p.collation.Wrap(expr)
}

// toSQLClause converts a conjunct of the form Operator(Column, Value) to an
// SQL condition with placeholders. ok is false when the conjunct can never
// hold, which makes the whole disjunct false.
//
// Example (nulls last, nullable column):
//
//	tConjunct = { Column: "assignments.due_at", Operator: ">", Value: "2024-01-01 00:00:00.000000"}
//
// Result:
//
//	("(assignments.due_at > ? OR assignments.due_at IS NULL)", [time.Time])
func (p predicateBuilder) toSQLClause(c tConjunct) (string, []any, bool) {
	col := c.Column

	if c.Value == nil {
		switch {
		case c.Operator == operatorEq:
			return col.expr + " IS NULL", nil, true
		case p.nullsFirst:
			// Leaving the leading null block.
			return col.expr + " IS NOT NULL", nil, true
		default:
			// Nulls are last: nothing sorts after a null.
			return "", nil, false
		}
	}

	sql := fmt.Sprintf("%s %s %s",
		p.comparand(col, col.expr),
		c.Operator,
		p.comparand(col, "?"),
	)
	if c.Operator.Valid() && col.info.Nullable && !p.nullsFirst {
		sql = fmt.Sprintf("(%s OR %s IS NULL)", sql, col.expr)
	}

	return sql, []any{coerceValue(col.info.Type, c.Value)}, true
}

// toSQLClause converts a disjunct (K1, K2, K3) into "(K1 AND K2 AND K3)".
// A disjunct holding a conjunct that can never be true is dropped.
func (d tDisjunct) toSQLClause(p predicateBuilder) (string, []any, bool) {
	andClauses := make([]string, 0, len(d))
	andValues := make([]any, 0, len(d))

	for _, conjunct := range d {
		andClause, vars, ok := p.toSQLClause(conjunct)
		if !ok {
			return "", nil, false
		}

		andClauses = append(andClauses, andClause)
		andValues = append(andValues, vars...)
	}

	if len(andClauses) == 0 {
		return "", nil, false
	}
	if len(andClauses) == 1 {
		return andClauses[0], andValues, true
	}

	return "(" + strings.Join(andClauses, " AND ") + ")", andValues, true
}

// toSQLClause joins every live disjunct with OR. An empty DNF matches
// nothing.
//
// Example:
//
//	tDNF = {
//		{{Column: "id", Operator: "<", Value: 10}},
//		{{Column: "id", Operator: "=", Value: 10}, {Column: "name", Operator: "<", Value: "abc"}},
//	}
//
// Result:
//
//	("id < ? OR (id = ? AND name < ?)", [10, 10, "abc"])
func (d tDNF) toSQLClause(p predicateBuilder) (string, []any) {
	orClauses := make([]string, 0, len(d))
	values := make([]any, 0, len(d))

	for _, disjunct := range d {
		orClause, orValues, ok := disjunct.toSQLClause(p)
		if !ok {
			continue
		}

		orClauses = append(orClauses, orClause)
		values = append(values, orValues...)
	}

	if len(orClauses) == 0 {
		return "1 = 0", nil
	}

	return strings.Join(orClauses, " OR "), values
}

// toGORMExpression wraps the DNF into a WHERE clause usable with
// (*gorm.DB).Clauses. GORM parenthesises it when other conditions are
// present.
func (d tDNF) toGORMExpression(p predicateBuilder) clause.Expression {
	sql, vars := d.toSQLClause(p)

	return clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: sql, Vars: vars},
	}}
}
