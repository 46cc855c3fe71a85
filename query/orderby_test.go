package query

import (
	"errors"
	"math"
	"testing"
)

func people() ([]string, []Row) {
	labels := []string{"people.name", "age", "dept"}
	rows := []Row{
		{Text("charlie"), Int(25), Text("sales")},
		{Text("alice"), Int(30), Text("eng")},
		{Text("bob"), Int(20), Text("sales")},
		{Text("dave"), Int(30), Text("eng")},
	}
	return labels, rows
}

func TestApplyOrderBy_SingleColumn(t *testing.T) {
	labels, rows := people()

	tests := []struct {
		name      string
		orderBy   []OrderByItem
		wantFirst string
		wantLast  string
	}{
		{
			name:      "age ascending",
			orderBy:   []OrderByItem{{Column: "age"}},
			wantFirst: "bob",  // age 20
			wantLast:  "dave", // age 30, after alice
		},
		{
			name:      "age descending",
			orderBy:   []OrderByItem{{Column: "age", Desc: true}},
			wantFirst: "alice", // age 30, stable
			wantLast:  "bob",   // age 20
		},
		{
			name:      "bare name matches qualified label",
			orderBy:   []OrderByItem{{Column: "name"}},
			wantFirst: "alice",
			wantLast:  "dave",
		},
		{
			name:      "qualified name descending",
			orderBy:   []OrderByItem{{Column: "people.name", Desc: true}},
			wantFirst: "dave",
			wantLast:  "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted, err := ApplyOrderBy(rows, labels, tt.orderBy)
			if err != nil {
				t.Fatalf("ApplyOrderBy() error = %v", err)
			}

			if len(sorted) != len(rows) {
				t.Fatalf("ApplyOrderBy() returned %d rows, want %d", len(sorted), len(rows))
			}

			if first := sorted[0][0].String(); first != tt.wantFirst {
				t.Errorf("First row name = %s, want %s", first, tt.wantFirst)
			}
			if last := sorted[len(sorted)-1][0].String(); last != tt.wantLast {
				t.Errorf("Last row name = %s, want %s", last, tt.wantLast)
			}
		})
	}

	// The input is left untouched
	if rows[0][0].String() != "charlie" {
		t.Errorf("ApplyOrderBy() modified its input")
	}
}

func TestApplyOrderBy_MultipleColumns(t *testing.T) {
	labels, rows := people()

	sorted, err := ApplyOrderBy(rows, labels, []OrderByItem{
		{Column: "dept"},
		{Column: "age", Desc: true},
	})
	if err != nil {
		t.Fatalf("ApplyOrderBy() error = %v", err)
	}

	want := []string{"alice", "dave", "charlie", "bob"}
	for i, name := range want {
		if got := sorted[i][0].String(); got != name {
			t.Errorf("row %d name = %s, want %s", i, got, name)
		}
	}
}

func TestApplyOrderBy_MixedKinds(t *testing.T) {
	rows := []Row{{Text("x")}, {Float(2.5)}, {Int(3)}, {Int(-1)}}

	sorted, err := ApplyOrderBy(rows, []string{"v"}, []OrderByItem{{Column: "v"}})
	if err != nil {
		t.Fatalf("ApplyOrderBy() error = %v", err)
	}

	want := []Value{Int(-1), Float(2.5), Int(3), Text("x")}
	for i, v := range want {
		if sorted[i][0] != v {
			t.Errorf("row %d = %v, want %v", i, sorted[i][0], v)
		}
	}
}

func TestApplyOrderBy_UnknownColumn(t *testing.T) {
	labels, rows := people()

	_, err := ApplyOrderBy(rows, labels, []OrderByItem{{Column: "salary"}})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("ApplyOrderBy() error = %v, want ErrUnknownColumn", err)
	}
}

func ptr(v int64) *int64 {
	return &v
}

func TestApplyLimitOffset(t *testing.T) {
	_, rows := people()

	tests := []struct {
		name      string
		limit     *int64
		offset    *int64
		wantCount int
		wantFirst string
	}{
		{name: "no limit", wantCount: 4, wantFirst: "charlie"},
		{name: "limit 2", limit: ptr(2), wantCount: 2, wantFirst: "charlie"},
		{name: "limit 0", limit: ptr(0), wantCount: 0},
		{name: "limit beyond end", limit: ptr(10), wantCount: 4, wantFirst: "charlie"},
		{name: "offset 1", offset: ptr(1), wantCount: 3, wantFirst: "alice"},
		{name: "offset beyond end", offset: ptr(4), wantCount: 0},
		{name: "limit and offset", limit: ptr(2), offset: ptr(1), wantCount: 2, wantFirst: "alice"},
		{name: "limit past remaining", limit: ptr(5), offset: ptr(3), wantCount: 1, wantFirst: "dave"},
		{name: "max limit with offset", limit: ptr(math.MaxInt64), offset: ptr(1), wantCount: 3, wantFirst: "alice"},
		{name: "max limit and max offset", limit: ptr(math.MaxInt64), offset: ptr(math.MaxInt64), wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyLimitOffset(rows, tt.limit, tt.offset)
			if len(got) != tt.wantCount {
				t.Fatalf("ApplyLimitOffset() returned %d rows, want %d", len(got), tt.wantCount)
			}
			if tt.wantCount > 0 && got[0][0].String() != tt.wantFirst {
				t.Errorf("First row = %s, want %s", got[0][0], tt.wantFirst)
			}
		})
	}
}
