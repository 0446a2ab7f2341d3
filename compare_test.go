package bookmarker

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Bookmarker_Compare(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	asc, err := New[tTask](db, Ascending(Column("due_at"), Column("id")))
	require.NoError(t, err)
	desc, err := New[tTask](db, Descending(Column("due_at"), Column("id")))
	require.NoError(t, err)
	nullsFirst, err := New[tTask](db, Ascending(Column("due_at"), Column("id")), WithNullsFirst())
	require.NoError(t, err)

	var (
		jan1a = Bookmark{"2024-01-01 00:00:00.000000", 1}
		jan1b = Bookmark{"2024-01-01 00:00:00.000000", 2}
		jan2  = Bookmark{"2024-01-02 00:00:00.000000", 1}
		null  = Bookmark{nil, 1}
	)

	tests := []struct {
		name string
		b    *Bookmarker[tTask]
		x, y Bookmark
		want int
	}{
		{"tie broken by id", asc, jan1a, jan1b, -1},
		{"datetime first", asc, jan1b, jan2, -1},
		{"same position", asc, jan1a, Bookmark{"2024-01-01 00:00:00.000000", 1}, 0},
		{"null last ascending", asc, null, jan2, 1},
		{"null last descending", desc, null, jan2, 1},
		{"descending reverses values", desc, jan1a, jan2, 1},
		{"nulls first", nullsFirst, null, jan1a, -1},
		{"time against string", asc, Bookmark{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1}, jan1b, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.b.Compare(tt.x, tt.y))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.y, tt.x))
		})
	}
}

func Test_compareScalars(t *testing.T) {
	var (
		root    = PostgresCollation("und-x-icu")
		numeric = PostgresCollation("und-u-kn-true")
	)

	tests := []struct {
		name      string
		collation Collation
		typ       ColumnType
		x, y      any
		want      int
	}{
		{"numeric aware strings", numeric, TypeString, "item 9", "item 10", -1},
		{"root collation compares digits one by one", root, TypeString, "item 9", "item 10", 1},
		{"bytes compare digits one by one", NoCollation, TypeString, "item9", "item10", 1},
		{"case insensitive primary order", root, TypeString, "apple", "Banana", -1},
		{"bytes put upper case first", NoCollation, TypeString, "apple", "Banana", 1},
		{"case variants tie under nocase", SQLiteCollation("NOCASE"), TypeString, "abc", "ABC", 0},
		{"case variants differ under root", root, TypeString, "abc", "ABC", -1},
		{"mixed numbers", nil, TypeFloat, 2, 2.5, -1},
		{"exact integers", nil, TypeInteger, int64(9007199254740993), int64(9007199254740992), 1},
		{"booleans", nil, TypeBoolean, false, true, -1},
		{"datetimes", nil, TypeDatetime, "2024-01-02 00:00:00.000000", "2024-01-01T23:00:00-02:00", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareScalars(tt.collation, tt.typ, tt.x, tt.y))
			assert.Equal(t, -tt.want, compareScalars(tt.collation, tt.typ, tt.y, tt.x))
		})
	}
}

func Test_Bookmarker_Sort(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	b, err := New[tTask](db, Ascending(Column("due_at"), Column("id")))
	require.NoError(t, err)

	day := func(d int) *time.Time {
		return lo.ToPtr(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC))
	}

	tasks := []tTask{
		{ID: 1, DueAt: day(1)},
		{ID: 2, DueAt: day(1)},
		{ID: 3},
		{ID: 4, DueAt: day(3)},
		{ID: 5, DueAt: day(2)},
	}
	b.Sort(tasks)

	assert.Equal(t, []uint{1, 2, 5, 4, 3}, lo.Map(tasks, func(task tTask, _ int) uint { return task.ID }))
}
