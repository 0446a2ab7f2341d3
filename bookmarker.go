package bookmarker

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Bookmarker is bound to one model type and one SortKey. It is built once per
// collection definition and is safe for concurrent use.
type Bookmarker[T any] struct {
	key       SortKey
	operator  Operator
	model     *schema.Schema
	columns   []*resolvedColumn
	predicate predicateBuilder
	strict    bool
	config    Config
	logger    *zap.Logger
}

type options struct {
	catalog    Catalog
	collation  Collation
	nullsFirst bool
	strict     bool
	config     Config
	logger     *zap.Logger
	getters    map[string]func(any) any
}

type Option func(*options)

// WithCatalog sets the schema lookup used to resolve column specs. Defaults
// to a ModelCatalog of the model and everything reachable through its
// relationships.
func WithCatalog(catalog Catalog) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithCollation overrides the collation applied to textual columns. Defaults
// to a deterministic collation of the dialect: "und-x-icu" on PostgreSQL,
// utf8mb4_bin on MySQL, none elsewhere.
func WithCollation(collation Collation) Option {
	return func(o *options) {
		o.collation = collation
	}
}

// WithNullsFirst sorts nulls before every value in both directions.
func WithNullsFirst() Option {
	return func(o *options) {
		o.nullsFirst = true
	}
}

// WithStrictValidation makes Validate check coalesce and association
// positions, not only simple columns.
func WithStrictValidation() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithConfig sets the paging policy. NullsFirst and StrictValidation of the
// config behave like the matching options.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
		o.nullsFirst = o.nullsFirst || cfg.NullsFirst
		o.strict = o.strict || cfg.StrictValidation
	}
}

// WithLogger sets the logger for construction, predicate and validation
// messages. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Getters is a set of value getters keyed by the column spec string (as
// returned by ColumnSpec.String). A getter replaces reflection based value
// extraction, and lets a spec name a column the model struct does not map.
//
//	bookmarker.Getters[Submission]{
//		"due_at": func(s Submission) any { return s.CachedDueDate },
//	}
type Getters[T any] map[string]func(T) any

// WithGetters registers value getters. T must match the Bookmarker type.
func WithGetters[T any](getters Getters[T]) Option {
	return func(o *options) {
		for column, getter := range getters {
			o.getters[column] = func(v any) any {
				entity, ok := v.(T)
				if !ok {
					return nil
				}

				return getter(entity)
			}
		}
	}
}

// New resolves every column spec of key against the schema of T. Unknown
// columns and associations are reported here, never per request.
func New[T any](db *gorm.DB, key SortKey, opts ...Option) (*Bookmarker[T], error) {
	if db == nil {
		return nil, fmt.Errorf("cannot build bookmarker: nil db")
	}
	if err := key.validate(); err != nil {
		return nil, fmt.Errorf("cannot build bookmarker: %w", err)
	}

	o := options{
		config:  DefaultConfig(),
		logger:  zap.NewNop(),
		getters: make(map[string]func(any) any),
	}
	for _, opt := range opts {
		opt(&o)
	}

	model, err := parseSchema(db, new(T))
	if err != nil {
		return nil, fmt.Errorf("cannot parse model %T: %w", lo.Empty[T](), err)
	}

	if o.catalog == nil {
		catalog := newModelCatalog()
		catalog.add(model)
		o.catalog = catalog
	}
	if o.collation == nil {
		o.collation = defaultCollation(db.Dialector.Name())
	}

	r := resolver{
		model:   model,
		catalog: o.catalog,
		namer:   db.NamingStrategy,
		getters: o.getters,
	}

	columns := make([]*resolvedColumn, 0, len(key.Columns))
	for _, spec := range key.Columns {
		col, err := r.resolve(spec)
		if err != nil {
			return nil, fmt.Errorf("cannot build bookmarker: %w", err)
		}

		bindGetters(col, o.getters)
		columns = append(columns, col)
	}

	b := &Bookmarker[T]{
		key:      key,
		operator: key.Direction.ForOperator(),
		model:    model,
		columns:  columns,
		predicate: predicateBuilder{
			collation:  o.collation,
			nullsFirst: o.nullsFirst,
		},
		strict: o.strict,
		config: o.config,
		logger: o.logger.With(zap.String("model", model.Name), zap.Stringer("sort_key", key)),
	}
	b.logger.Debug("bookmarker resolved", zap.Strings("columns", lo.Map(columns, func(c *resolvedColumn, _ int) string {
		return c.expr
	})))

	return b, nil
}

func bindGetters(col *resolvedColumn, getters map[string]func(any) any) {
	for _, branch := range col.branches {
		bindGetters(branch, getters)
	}

	getter, ok := getters[col.spec.String()]
	if !ok {
		return
	}

	col.value = func(_ context.Context, rv reflect.Value) any {
		return normalizeValue(getter(rv.Interface()))
	}
}

// SortKey returns the key the bookmarker was built for.
func (b *Bookmarker[T]) SortKey() SortKey {
	return b.key
}

// Config returns the paging policy.
func (b *Bookmarker[T]) Config() Config {
	return b.config
}

// BookmarkFor returns the position of entity: one value per column spec,
// datetimes rendered with BookmarkTimeLayout.
func (b *Bookmarker[T]) BookmarkFor(entity T) Bookmark {
	ctx := context.Background()
	rv := reflect.ValueOf(&entity).Elem()

	ret := make(Bookmark, 0, len(b.columns))
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return append(ret, make([]any, len(b.columns))...)
	}

	for _, col := range b.columns {
		ret = append(ret, formatBookmarkValue(col.valueOf(ctx, rv)))
	}

	return ret
}

// Comparison renders the predicate selecting the rows that sort strictly
// after bookmark, with "?" placeholders and the matching bind values.
func (b *Bookmarker[T]) Comparison(bookmark Bookmark) (string, []any, error) {
	if len(bookmark) != len(b.columns) {
		return "", nil, fmt.Errorf("%w: got %d values, want %d", ErrArityMismatch, len(bookmark), len(b.columns))
	}

	sql, vars := newDNF(b.columns, bookmark, b.operator).toSQLClause(b.predicate)

	return "(" + sql + ")", vars, nil
}

// OrderBy renders the ORDER BY expression list of the SortKey.
func (b *Bookmarker[T]) OrderBy() string {
	parts := lo.Map(b.orderByColumns(), func(c clause.OrderByColumn, _ int) string {
		return c.Column.Name + lo.Ternary(c.Desc, " DESC", "")
	})

	return strings.Join(parts, ", ")
}

// orderByColumns lists, for every column spec, a null indicator for nullable
// columns followed by the (collated) column itself.
func (b *Bookmarker[T]) orderByColumns() []clause.OrderByColumn {
	desc := b.operator.ForOrdering() == DirectionDESC

	ret := make([]clause.OrderByColumn, 0, 2*len(b.columns))
	for _, col := range b.columns {
		if col.info.Nullable {
			ret = append(ret, clause.OrderByColumn{
				Column: clause.Column{Name: col.expr + " IS NULL", Raw: true},
				Desc:   b.predicate.nullsFirst,
			})
		}

		ret = append(ret, clause.OrderByColumn{
			Column: clause.Column{Name: b.predicate.comparand(col, col.expr), Raw: true},
			Desc:   desc,
		})
	}

	return ret
}

// Restrict replaces the ordering of scope with the SortKey and, when a
// bookmark is given, keeps only the rows sorting strictly after it. The
// bookmark is expected to be validated already.
func (b *Bookmarker[T]) Restrict(scope *gorm.DB, bookmark Bookmark) (*gorm.DB, error) {
	if len(bookmark) != 0 && len(bookmark) != len(b.columns) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrArityMismatch, len(bookmark), len(b.columns))
	}

	orderBy := b.orderByColumns()
	orderBy[0].Reorder = true
	scope = scope.Clauses(clause.OrderBy{Columns: orderBy})

	if len(bookmark) == 0 {
		return scope, nil
	}

	dnf := newDNF(b.columns, bookmark, b.operator)
	if ce := b.logger.Check(zap.DebugLevel, "bookmark predicate"); ce != nil {
		sql, vars := dnf.toSQLClause(b.predicate)
		ce.Write(zap.String("sql", sql), zap.Any("vars", vars))
	}

	return scope.Clauses(dnf.toGORMExpression(b.predicate)), nil
}

// Scope adapts Restrict to (*gorm.DB).Scopes. Errors are added to the
// statement.
func (b *Bookmarker[T]) Scope(bookmark Bookmark) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		scope, err := b.Restrict(db, bookmark)
		if err != nil {
			_ = db.AddError(err)
			return db
		}

		return scope
	}
}

// Pager starts a pager for one request, initialised from the config.
func (b *Bookmarker[T]) Pager() *Pager[T] {
	p := &Pager[T]{
		bookmarker: b,
		limit:      b.config.DefaultLimit,
		lookahead:  b.config.Lookahead,
	}

	return p
}
