package bookmarker

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ColumnType is the declared type category of a column.
type ColumnType string

const (
	TypeUnknown  ColumnType = ""
	TypeString   ColumnType = "string"
	TypeText     ColumnType = "text"
	TypeInteger  ColumnType = "integer"
	TypeFloat    ColumnType = "float"
	TypeBoolean  ColumnType = "boolean"
	TypeDatetime ColumnType = "datetime"
)

// IsTextual reports whether values of the type are compared with a collation.
func (t ColumnType) IsTextual() bool {
	return t == TypeString || t == TypeText
}

// ColumnInfo is the type metadata of one column.
type ColumnInfo struct {
	Type     ColumnType
	Nullable bool
}

// Catalog answers schema questions during column resolution.
type Catalog interface {
	HasTable(table string) bool
	Column(table, column string) (ColumnInfo, bool)
}

// ModelLookup is implemented by catalogs that know Go model names and can
// map one to its storage table.
type ModelLookup interface {
	TableForModel(model string) (string, bool)
}

// ModelCatalog is a static registry of GORM models. Relationship targets of
// every registered model are registered too.
type ModelCatalog struct {
	byTable map[string]*schema.Schema
	byModel map[string]*schema.Schema
}

// NewModelCatalog parses the given models (struct values or pointers) with the
// naming strategy of db.
func NewModelCatalog(db *gorm.DB, models ...any) (*ModelCatalog, error) {
	c := newModelCatalog()
	for _, model := range models {
		s, err := parseSchema(db, model)
		if err != nil {
			return nil, fmt.Errorf("cannot parse model %T: %w", model, err)
		}
		c.add(s)
	}

	return c, nil
}

func newModelCatalog() *ModelCatalog {
	return &ModelCatalog{
		byTable: make(map[string]*schema.Schema),
		byModel: make(map[string]*schema.Schema),
	}
}

func (c *ModelCatalog) add(s *schema.Schema) {
	if s == nil {
		return
	}
	if _, ok := c.byTable[s.Table]; ok {
		return
	}

	c.byTable[s.Table] = s
	c.byModel[s.Name] = s
	for _, rel := range s.Relationships.Relations {
		c.add(rel.FieldSchema)
	}
}

// HasTable - implements Catalog.
func (c *ModelCatalog) HasTable(table string) bool {
	_, ok := c.byTable[table]
	return ok
}

// Column - implements Catalog.
func (c *ModelCatalog) Column(table, column string) (ColumnInfo, bool) {
	s, ok := c.byTable[table]
	if !ok {
		return ColumnInfo{}, false
	}

	field := s.LookUpField(column)
	if field == nil || field.DBName == "" {
		return ColumnInfo{}, false
	}

	return fieldInfo(field), true
}

// TableForModel - implements ModelLookup.
func (c *ModelCatalog) TableForModel(model string) (string, bool) {
	s, ok := c.byModel[model]
	if !ok {
		return "", false
	}

	return s.Table, true
}

// MigratorCatalog reads table and column metadata from the live database
// through the GORM migrator. Answers are memoised per table.
type MigratorCatalog struct {
	db *gorm.DB

	mu      sync.Mutex
	tables  map[string]bool
	columns map[string]map[string]ColumnInfo
}

func NewMigratorCatalog(db *gorm.DB) *MigratorCatalog {
	return &MigratorCatalog{
		db:      db,
		tables:  make(map[string]bool),
		columns: make(map[string]map[string]ColumnInfo),
	}
}

// HasTable - implements Catalog.
func (c *MigratorCatalog) HasTable(table string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if has, ok := c.tables[table]; ok {
		return has
	}

	has := c.db.Migrator().HasTable(table)
	c.tables[table] = has

	return has
}

// Column - implements Catalog.
func (c *MigratorCatalog) Column(table, column string) (ColumnInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	columns, ok := c.columns[table]
	if !ok {
		columnTypes, err := c.db.Migrator().ColumnTypes(table)
		if err != nil {
			return ColumnInfo{}, false
		}

		columns = make(map[string]ColumnInfo, len(columnTypes))
		for _, ct := range columnTypes {
			nullable, ok := ct.Nullable()
			columns[ct.Name()] = ColumnInfo{
				Type:     ParseSQLType(ct.DatabaseTypeName()),
				Nullable: nullable || !ok,
			}
		}
		c.columns[table] = columns
	}

	info, ok := columns[column]

	return info, ok
}

// CatalogChain asks each catalog in turn and returns the first answer.
type CatalogChain []Catalog

// HasTable - implements Catalog.
func (c CatalogChain) HasTable(table string) bool {
	for _, catalog := range c {
		if catalog.HasTable(table) {
			return true
		}
	}

	return false
}

// Column - implements Catalog.
func (c CatalogChain) Column(table, column string) (ColumnInfo, bool) {
	for _, catalog := range c {
		if info, ok := catalog.Column(table, column); ok {
			return info, true
		}
	}

	return ColumnInfo{}, false
}

// TableForModel - implements ModelLookup.
func (c CatalogChain) TableForModel(model string) (string, bool) {
	for _, catalog := range c {
		if lookup, ok := catalog.(ModelLookup); ok {
			if table, ok := lookup.TableForModel(model); ok {
				return table, true
			}
		}
	}

	return "", false
}

var (
	_ Catalog     = (*ModelCatalog)(nil)
	_ ModelLookup = (*ModelCatalog)(nil)
	_ Catalog     = (*MigratorCatalog)(nil)
	_ Catalog     = CatalogChain(nil)
	_ ModelLookup = CatalogChain(nil)
)

// ParseSQLType maps a database type name (as reported by the driver or found
// in a gorm "type" tag) to a ColumnType. Size specifiers are ignored.
func ParseSQLType(sqlType string) ColumnType {
	if idx := strings.Index(sqlType, "("); idx != -1 {
		sqlType = sqlType[:idx]
	}

	switch strings.ToUpper(strings.TrimSpace(sqlType)) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "SMALLSERIAL", "UNSIGNED BIG INT":
		return TypeInteger
	case "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "REAL", "DECIMAL", "NUMERIC":
		return TypeFloat
	case "BOOL", "BOOLEAN":
		return TypeBoolean
	case "CHAR", "VARCHAR", "CHARACTER", "CHARACTER VARYING", "NCHAR", "NVARCHAR", "CITEXT", "ENUM", "UUID":
		return TypeString
	case "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "CLOB":
		return TypeText
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ",
		"TIMESTAMP WITHOUT TIME ZONE", "TIMESTAMP WITH TIME ZONE":
		return TypeDatetime
	default:
		return TypeUnknown
	}
}

func parseSchema(db *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, err
	}

	return stmt.Schema, nil
}

func fieldInfo(field *schema.Field) ColumnInfo {
	return ColumnInfo{
		Type:     fieldType(field),
		Nullable: !field.PrimaryKey && !field.NotNull && isNullableGoType(field.FieldType),
	}
}

func fieldType(field *schema.Field) ColumnType {
	switch field.DataType {
	case schema.Bool:
		return TypeBoolean
	case schema.Int, schema.Uint:
		return TypeInteger
	case schema.Float:
		return TypeFloat
	case schema.Time:
		return TypeDatetime
	case schema.String:
		if strings.Contains(strings.ToLower(field.TagSettings["TYPE"]), "text") {
			return TypeText
		}
		return TypeString
	case schema.Bytes, "":
		return TypeUnknown
	default:
		return ParseSQLType(string(field.DataType))
	}
}

func isNullableGoType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	case reflect.Struct:
		return strings.HasPrefix(t.Name(), "Null") || t == reflect.TypeOf(gorm.DeletedAt{})
	default:
		return false
	}
}
