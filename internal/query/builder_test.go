package query

import (
	"net/url"
	"testing"

	"tourbook/internal/domain"
)

func TestBuildDefaults(t *testing.T) {
	spec, err := Build(url.Values{})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if spec.Page != 1 || spec.Limit != 100 {
		t.Fatalf("expected page=1 limit=100, got page=%d limit=%d", spec.Page, spec.Limit)
	}
	if len(spec.SortKeys) != 1 || spec.SortKeys[0].Field != "createdAt" || !spec.SortKeys[0].Desc {
		t.Fatalf("expected default sort createdAt desc, got %+v", spec.SortKeys)
	}
	if len(spec.Filters) != 0 || len(spec.Fields) != 0 {
		t.Fatalf("expected empty filters/fields, got %+v / %+v", spec.Filters, spec.Fields)
	}
}

func TestBuildPaginationFallbacks(t *testing.T) {
	cases := []struct {
		page, limit string
		wantPage    int
		wantLimit   int
	}{
		{"3", "5", 3, 5},
		{"abc", "xyz", 1, 100},
		{"-2", "0", 1, 100},
		{"", "9999", 1, MaxLimit},
	}
	for _, tc := range cases {
		raw := url.Values{}
		if tc.page != "" {
			raw.Set("page", tc.page)
		}
		if tc.limit != "" {
			raw.Set("limit", tc.limit)
		}
		spec, err := Build(raw)
		if err != nil {
			t.Fatalf("build(%q,%q) error: %v", tc.page, tc.limit, err)
		}
		if spec.Page != tc.wantPage || spec.Limit != tc.wantLimit {
			t.Errorf("build(%q,%q) = page %d limit %d, want %d/%d",
				tc.page, tc.limit, spec.Page, spec.Limit, tc.wantPage, tc.wantLimit)
		}
	}
}

func TestLimitOffset(t *testing.T) {
	spec, err := Build(url.Values{"page": {"2"}, "limit": {"5"}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	limit, offset := spec.LimitOffset()
	if limit != 5 || offset != 5 {
		t.Fatalf("expected limit=5 offset=5, got %d/%d", limit, offset)
	}
}

func TestBuildOperatorFilters(t *testing.T) {
	raw := url.Values{
		"price[gte]": {"100"},
		"difficulty": {"easy"},
	}
	spec, err := Build(raw)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if len(spec.Filters) != 2 {
		t.Fatalf("expected 2 filters, got %+v", spec.Filters)
	}
	// Keys come out sorted.
	if spec.Filters[0].Field != "difficulty" || spec.Filters[0].Op != OpEq {
		t.Errorf("unexpected filter: %+v", spec.Filters[0])
	}
	if spec.Filters[1].Field != "price" || spec.Filters[1].Op != OpGte || spec.Filters[1].Value != "100" {
		t.Errorf("unexpected filter: %+v", spec.Filters[1])
	}
}

func TestBuildRejectsUnknownOperator(t *testing.T) {
	_, err := Build(url.Values{"price[regex]": {".*"}})
	if err == nil {
		t.Fatal("expected error for unknown operator")
	}
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildSort(t *testing.T) {
	spec, err := Build(url.Values{"sort": {"-price,ratingsAverage"}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	want := []SortKey{{Field: "price", Desc: true}, {Field: "ratingsAverage"}}
	if len(spec.SortKeys) != len(want) {
		t.Fatalf("expected %d sort keys, got %+v", len(want), spec.SortKeys)
	}
	for i := range want {
		if spec.SortKeys[i] != want[i] {
			t.Errorf("sort key %d = %+v, want %+v", i, spec.SortKeys[i], want[i])
		}
	}
}

func TestWhereRendersAllowedColumns(t *testing.T) {
	spec, err := Build(url.Values{"price[gte]": {"100"}, "difficulty": {"easy"}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	allowed := map[string]string{"price": "price", "difficulty": "difficulty"}
	clause, args, err := spec.Where(allowed)
	if err != nil {
		t.Fatalf("where error: %v", err)
	}
	if clause != "difficulty = ? AND price >= ?" {
		t.Fatalf("unexpected clause: %q", clause)
	}
	if len(args) != 2 || args[0] != "easy" || args[1] != "100" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestWhereBlocksUnknownIdentifier(t *testing.T) {
	spec, err := Build(url.Values{"1;DROP TABLE tours": {"x"}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	_, _, err = spec.Where(map[string]string{"price": "price"})
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderByDefault(t *testing.T) {
	spec, err := Build(url.Values{})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	order, err := spec.OrderBy(map[string]string{"createdAt": "created_at"})
	if err != nil {
		t.Fatalf("orderby error: %v", err)
	}
	if order != "created_at DESC" {
		t.Fatalf("unexpected order: %q", order)
	}
}

func TestProjection(t *testing.T) {
	item := map[string]any{"id": 1, "name": "The Forest Hiker", "price": 397, "summary": "hike"}

	spec, err := Build(url.Values{})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if got := spec.Project(item); len(got) != 4 {
		t.Fatalf("expected passthrough, got %v", got)
	}

	spec, err = Build(url.Values{"fields": {"name,price"}})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	got := spec.Project(item)
	if len(got) != 3 {
		t.Fatalf("expected id+name+price, got %v", got)
	}
	if _, ok := got["summary"]; ok {
		t.Fatal("summary should be projected away")
	}
}
