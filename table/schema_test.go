package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/minisql/query"
)

func TestInferSchema(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		records [][]string
		want    []query.Column
	}{
		{
			name:    "integers",
			header:  []string{"n"},
			records: [][]string{{"1"}, {"-2"}, {" 3 "}},
			want:    []query.Column{{Name: "n", Kind: query.KindInteger}},
		},
		{
			name:    "mixed numbers",
			header:  []string{"n"},
			records: [][]string{{"1"}, {"2.5"}},
			want:    []query.Column{{Name: "n", Kind: query.KindFloat}},
		},
		{
			name:    "text",
			header:  []string{"s"},
			records: [][]string{{"1"}, {"abc"}},
			want:    []query.Column{{Name: "s", Kind: query.KindText, MaxLength: 50}},
		},
		{
			name:    "no samples",
			header:  []string{"s"},
			records: nil,
			want:    []query.Column{{Name: "s", Kind: query.KindText, MaxLength: 50}},
		},
		{
			name:    "long text",
			header:  []string{"s"},
			records: [][]string{{strings.Repeat("x", 80)}},
			want:    []query.Column{{Name: "s", Kind: query.KindText, MaxLength: 80}},
		},
		{
			name:    "text length capped",
			header:  []string{"s"},
			records: [][]string{{strings.Repeat("x", 400)}},
			want:    []query.Column{{Name: "s", Kind: query.KindText, MaxLength: 255}},
		},
		{
			name:   "only first five rows sampled",
			header: []string{"n"},
			records: [][]string{
				{"1"}, {"2"}, {"3"}, {"4"}, {"5"}, {"not a number"},
			},
			want: []query.Column{{Name: "n", Kind: query.KindInteger}},
		},
		{
			name:    "empty cell is text",
			header:  []string{"n"},
			records: [][]string{{"1"}, {""}},
			want:    []query.Column{{Name: "n", Kind: query.KindText, MaxLength: 50}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferSchema(tt.header, tt.records))
		})
	}
}

func TestParseColumnDefinitions(t *testing.T) {
	cols, warnings, err := ParseColumnDefinitions("id INT, price DOUBLE, name VARCHAR(20), note TEXT, code varchar")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []query.Column{
		{Name: "id", Kind: query.KindInteger},
		{Name: "price", Kind: query.KindFloat},
		{Name: "name", Kind: query.KindText, MaxLength: 20},
		{Name: "note", Kind: query.KindText, MaxLength: 255},
		{Name: "code", Kind: query.KindText, MaxLength: 255},
	}, cols)
}

func TestParseColumnDefinitions_UnknownType(t *testing.T) {
	cols, warnings, err := ParseColumnDefinitions("born DATE, n INTEGER")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "born")
	assert.Equal(t, query.KindText, cols[0].Kind)
	assert.Equal(t, query.KindInteger, cols[1].Kind)
}

func TestParseColumnDefinitions_Errors(t *testing.T) {
	tests := []struct {
		name string
		defs string
	}{
		{"empty", "  "},
		{"missing type", "id"},
		{"duplicate", "id INT, id INT"},
		{"bad length", "name VARCHAR(abc)"},
		{"zero length", "name VARCHAR(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseColumnDefinitions(tt.defs)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestParseLiteral(t *testing.T) {
	intCol := query.Column{Name: "n", Kind: query.KindInteger}
	floatCol := query.Column{Name: "f", Kind: query.KindFloat}
	textCol := query.Column{Name: "s", Kind: query.KindText}

	tests := []struct {
		name    string
		raw     string
		col     query.Column
		want    query.Value
		wantErr bool
	}{
		{"int", "42", intCol, query.Int(42), false},
		{"int from integral float", "2.0", intCol, query.Int(2), false},
		{"int from quoted", "'7'", intCol, query.Int(7), false},
		{"int fractional", "2.5", intCol, query.Value{}, true},
		{"int text", "abc", intCol, query.Value{}, true},
		{"float", "1.25", floatCol, query.Float(1.25), false},
		{"float from int", "3", floatCol, query.Float(3), false},
		{"float text", "'x'", floatCol, query.Value{}, true},
		{"quoted text", "'Alice Smith'", textCol, query.Text("Alice Smith"), false},
		{"double quoted text", `"Bob"`, textCol, query.Text("Bob"), false},
		{"bare text", "Carol", textCol, query.Text("Carol"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiteral(tt.raw, tt.col)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTypeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
