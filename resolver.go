package bookmarker

import (
	"context"
	"database/sql/driver"
	"reflect"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/samber/lo"
	"gorm.io/gorm/schema"
)

// resolvedColumn is a ColumnSpec bound to the schema: its SQL expression,
// declared type and a Go-side accessor.
type resolvedColumn struct {
	spec     ColumnSpec
	table    string
	expr     string
	info     ColumnInfo
	branches []*resolvedColumn
	value    func(ctx context.Context, rv reflect.Value) any
}

// valueOf extracts the raw sort value from an entity. Coalesce specs take the
// first non-null branch.
func (c *resolvedColumn) valueOf(ctx context.Context, rv reflect.Value) any {
	if c.spec.kind == KindCoalesce {
		for _, branch := range c.branches {
			if v := branch.valueOf(ctx, rv); v != nil {
				return v
			}
		}

		return nil
	}
	if c.value == nil {
		return nil
	}

	return c.value(ctx, rv)
}

// typed reports whether the column has a type the validator can check.
func (c *resolvedColumn) typed() bool {
	return c.info.Type != TypeUnknown
}

type resolver struct {
	model   *schema.Schema
	catalog Catalog
	namer   schema.Namer
	getters map[string]func(any) any
}

func (r *resolver) resolve(spec ColumnSpec) (*resolvedColumn, error) {
	switch spec.kind {
	case KindCoalesce:
		return r.resolveCoalesce(spec)
	case KindAssociation:
		return r.resolveAssociation(spec)
	default:
		return r.resolveSimple(spec)
	}
}

func (r *resolver) hasGetter(spec ColumnSpec) bool {
	_, ok := r.getters[spec.String()]
	return ok
}

func (r *resolver) resolveSimple(spec ColumnSpec) (*resolvedColumn, error) {
	table := r.model.Table
	column := spec.name

	field := r.model.LookUpField(spec.name)
	if field != nil && field.DBName != "" {
		column = field.DBName
	} else {
		field = nil
	}

	info, known := r.catalog.Column(table, column)
	if !known && field != nil {
		info, known = fieldInfo(field), true
	}
	if !known || (field == nil && !r.hasGetter(spec)) {
		return nil, &UnresolvedColumnError{
			Table:   table,
			Column:  spec.name,
			Closest: closestAlias(spec.name, r.model.DBNames),
		}
	}

	col := &resolvedColumn{
		spec:  spec,
		table: table,
		expr:  table + "." + column,
		info:  info,
	}
	if field != nil {
		col.value = func(ctx context.Context, rv reflect.Value) any {
			v, _ := field.ValueOf(ctx, rv)
			return normalizeValue(v)
		}
	}

	return col, nil
}

func (r *resolver) resolveAssociation(spec ColumnSpec) (*resolvedColumn, error) {
	var (
		current = r.model
		chain   = make([]*schema.Relationship, 0, len(spec.path))
		walked  = true
	)

	for _, hop := range spec.path {
		rel := r.findRelationship(current, hop)
		if rel == nil {
			if !r.hasGetter(spec) {
				return nil, &UnresolvedAssociationError{
					Model:       current.Name,
					Association: hop,
					Path:        spec.path,
					Reason:      "no such relationship",
				}
			}
			walked = false
			break
		}
		if rel.Type == schema.HasMany || rel.Type == schema.Many2Many {
			return nil, &UnresolvedAssociationError{
				Model:       current.Name,
				Association: hop,
				Path:        spec.path,
				Reason:      "cannot order by a to-many relationship",
			}
		}

		chain = append(chain, rel)
		current = rel.FieldSchema
	}

	var target *schema.Schema
	if walked {
		target = current
	}

	lastHop := spec.path[len(spec.path)-1]
	table, ok := r.associatedTable(lastHop, target)
	if !ok {
		return nil, &UnresolvedAssociationError{
			Model:       r.model.Name,
			Association: lastHop,
			Path:        spec.path,
			Reason:      "no table matches",
		}
	}

	var field *schema.Field
	if target != nil {
		if f := target.LookUpField(spec.name); f != nil && f.DBName != "" {
			field = f
		}
	}

	column := spec.name
	if field != nil {
		column = field.DBName
	}

	info, known := r.catalog.Column(table, column)
	if !known && field != nil {
		info, known = fieldInfo(field), true
	}
	if !known || (field == nil && !r.hasGetter(spec)) {
		var candidates []string
		if target != nil {
			candidates = target.DBNames
		}

		return nil, &UnresolvedColumnError{
			Table:   table,
			Column:  spec.name,
			Closest: closestAlias(spec.name, candidates),
		}
	}

	col := &resolvedColumn{
		spec:  spec,
		table: table,
		expr:  table + "." + column,
		info:  info,
	}
	if field != nil {
		col.value = func(ctx context.Context, rv reflect.Value) any {
			v := rv
			for _, rel := range chain {
				v = reflect.Indirect(v)
				if !v.IsValid() {
					return nil
				}

				v = rel.Field.ReflectValueOf(ctx, v)
				if v.Kind() == reflect.Ptr && v.IsNil() {
					return nil
				}
			}

			value, _ := field.ValueOf(ctx, v)
			return normalizeValue(value)
		}
	}

	return col, nil
}

func (r *resolver) resolveCoalesce(spec ColumnSpec) (*resolvedColumn, error) {
	branches := make([]*resolvedColumn, 0, len(spec.branches))
	for _, b := range spec.branches {
		branch, err := r.resolve(b)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}

	exprs := lo.Map(branches, func(b *resolvedColumn, _ int) string { return b.expr })

	return &resolvedColumn{
		spec:     spec,
		expr:     "COALESCE(" + strings.Join(exprs, ", ") + ")",
		branches: branches,
		info: ColumnInfo{
			// Declared type of the first branch wins.
			Type: branches[0].info.Type,
			// NULL unless every branch is known to be NOT NULL.
			Nullable: lo.SomeBy(branches, func(b *resolvedColumn) bool { return b.info.Nullable }),
		},
	}, nil
}

// associatedTable finds the storage table behind the last hop of an
// association path:
//  1. the hop itself names an existing table;
//  2. the declared relationship target, or a registered model named after
//     the singular hop;
//  3. the pluralised hop names an existing table.
func (r *resolver) associatedTable(hop string, target *schema.Schema) (string, bool) {
	if r.catalog.HasTable(hop) {
		return hop, true
	}

	if target != nil {
		return target.Table, true
	}
	if lookup, ok := r.catalog.(ModelLookup); ok {
		if table, ok := lookup.TableForModel(lo.PascalCase(inflection.Singular(hop))); ok {
			return table, true
		}
	}

	if plural := inflection.Plural(hop); r.catalog.HasTable(plural) {
		return plural, true
	}

	return "", false
}

func (r *resolver) findRelationship(s *schema.Schema, hop string) *schema.Relationship {
	if rel, ok := s.Relationships.Relations[hop]; ok {
		return rel
	}

	flat := strings.ReplaceAll(hop, "_", "")
	for name, rel := range s.Relationships.Relations {
		if r.namer.ColumnName("", name) == hop || strings.EqualFold(name, flat) {
			return rel
		}
	}

	return nil
}

// normalizeValue dereferences pointers and unwraps driver.Valuer so that the
// bookmark holds plain scalars.
func normalizeValue(v any) any {
	if v == nil {
		return nil
	}

	if valuer, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil
		}

		dv, err := valuer.Value()
		if err != nil {
			return nil
		}

		return dv
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}

		return normalizeValue(rv.Elem().Interface())
	}

	return v
}
