package bookmarker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DecodeConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    Config
		wantErr bool
	}{
		{
			name: "empty keeps defaults",
			raw:  map[string]any{},
			want: DefaultConfig(),
		},
		{
			name: "nil keeps defaults",
			raw:  nil,
			want: DefaultConfig(),
		},
		{
			name: "every key",
			raw: map[string]any{
				"default_limit":     20,
				"max_limit":         200,
				"lookahead":         true,
				"nulls_first":       true,
				"strict_validation": true,
			},
			want: Config{DefaultLimit: 20, MaxLimit: 200, Lookahead: true, NullsFirst: true, StrictValidation: true},
		},
		{
			name: "weakly typed values",
			raw: map[string]any{
				"default_limit": "15",
				"lookahead":     "true",
			},
			want: Config{DefaultLimit: 15, MaxLimit: MaxLimit, Lookahead: true},
		},
		{
			name:    "unknown key",
			raw:     map[string]any{"page_size": 10},
			wantErr: true,
		},
		{
			name:    "non positive max",
			raw:     map[string]any{"max_limit": 0},
			wantErr: true,
		},
		{
			name:    "non positive default",
			raw:     map[string]any{"default_limit": -1},
			wantErr: true,
		},
		{
			name:    "not a number",
			raw:     map[string]any{"max_limit": "many"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeConfig(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, Config{}, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Config_NormalizeLimit(t *testing.T) {
	cfg := Config{DefaultLimit: 25, MaxLimit: 40}

	assert.Equal(t, 25, cfg.NormalizeLimit(0))
	assert.Equal(t, 25, cfg.NormalizeLimit(-5))
	assert.Equal(t, 7, cfg.NormalizeLimit(7))
	assert.Equal(t, 40, cfg.NormalizeLimit(40))
	assert.Equal(t, 40, cfg.NormalizeLimit(41))

	limit, kept := cfg.IsNormalizedLimit(7)
	assert.Equal(t, 7, limit)
	assert.True(t, kept)
	limit, kept = cfg.IsNormalizedLimit(0)
	assert.Equal(t, 25, limit)
	assert.False(t, kept)

	// A default above the cap is capped too.
	assert.Equal(t, 40, Config{DefaultLimit: 50, MaxLimit: 40}.NormalizeLimit(0))
}

func Test_WithConfig(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	cfg := Config{DefaultLimit: 3, MaxLimit: 9, Lookahead: true, NullsFirst: true, StrictValidation: true}
	b, err := New[tTask](db, Ascending(Column("id")), WithConfig(cfg))
	require.NoError(t, err)

	assert.Equal(t, cfg, b.Config())
	assert.True(t, b.predicate.nullsFirst)
	assert.True(t, b.strict)

	p := b.Pager()
	assert.Equal(t, 3, p.GetLimit())
	assert.True(t, p.IsLookahead())
	assert.Equal(t, 9, p.WithLimit(100).GetLimit())
}

func Test_Collations(t *testing.T) {
	tests := []struct {
		name      string
		collation Collation
		wantWrap  string
		x, y      string
		want      int
	}{
		{"none", NoCollation, "tasks.title", "B", "a", -1},
		{"postgres icu", PostgresCollation("und-x-icu"), `(tasks.title COLLATE "und-x-icu")`, "B", "a", 1},
		{"postgres icu numeric", PostgresCollation("und-u-kn-true"), `(tasks.title COLLATE "und-u-kn-true")`, "a10", "a9", 1},
		{"postgres icu with region", PostgresCollation("en-US-x-icu"), `(tasks.title COLLATE "en-US-x-icu")`, "b", "B", -1},
		{"postgres C", PostgresCollation("C"), `(tasks.title COLLATE "C")`, "B", "a", -1},
		{"mysql binary", MySQLCollation("utf8mb4_bin"), "tasks.title COLLATE utf8mb4_bin", "B", "a", -1},
		{"mysql case insensitive", MySQLCollation("utf8mb4_unicode_ci"), "tasks.title COLLATE utf8mb4_unicode_ci", "Résumé", "resume", 0},
		{"mysql accent sensitive", MySQLCollation("utf8mb4_0900_as_ci"), "tasks.title COLLATE utf8mb4_0900_as_ci", "ABC", "abc", 0},
		{"sqlite nocase", SQLiteCollation("NOCASE"), "tasks.title COLLATE NOCASE", "ABC", "abd", -1},
		{"sqlite nocase folds ascii only", SQLiteCollation("NOCASE"), "tasks.title COLLATE NOCASE", "É", "é", -1},
		{"sqlite rtrim", SQLiteCollation("RTRIM"), "tasks.title COLLATE RTRIM", "abc  ", "abc", 0},
		{"sqlite binary", SQLiteCollation("BINARY"), "tasks.title COLLATE BINARY", "B", "a", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantWrap, tt.collation.Wrap("tasks.title"))
			assert.Equal(t, tt.want, tt.collation.Compare(tt.x, tt.y))
			assert.Equal(t, -tt.want, tt.collation.Compare(tt.y, tt.x))
		})
	}
}
