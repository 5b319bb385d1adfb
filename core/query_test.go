package core

import (
	"testing"
)

func TestNewQuery(t *testing.T) {
	query := NewQuery()

	if query.Filters == nil {
		t.Error("Query.Filters should be initialized")
	}
	if query.HasSort() || query.HasSearch() || query.HasFilters() {
		t.Error("New query should be empty")
	}
	if query.Pagination.Limit != DefaultPageSize {
		t.Errorf("Expected default page size %d, got %d", DefaultPageSize, query.Pagination.Limit)
	}
}

func TestQueryChaining(t *testing.T) {
	query := NewQuery()

	result := query.
		WithSearch("APXE2E").
		WithFilters(map[string]any{"Number": "APXE2E 1"}).
		WithSort("Number", SortAsc).
		WithPagination(20, 40)

	if result != query {
		t.Fatal("builder methods should return the same instance")
	}
	if query.Search != "APXE2E" {
		t.Errorf("Expected search term 'APXE2E', got %q", query.Search)
	}
	if query.Filters["Number"] != "APXE2E 1" {
		t.Error("Filter 'Number' not set correctly")
	}
	if query.GetPrimarySort().Field != "Number" {
		t.Errorf("Expected primary sort 'Number', got %q", query.GetPrimarySort().Field)
	}
	if page := query.GetCurrentPage(); page != 3 {
		t.Errorf("Expected page 3, got %d", page)
	}
}

func TestQueryPaginationLimits(t *testing.T) {
	query := NewQuery()

	query.WithPagination(MaxPageSize+10, 0)
	if query.Pagination.Limit != MaxPageSize {
		t.Errorf("Expected limit to be capped at %d, got %d", MaxPageSize, query.Pagination.Limit)
	}

	query.WithPagination(-5, -5)
	if query.Pagination.Limit != DefaultPageSize {
		t.Errorf("Expected negative limit to default to %d, got %d", DefaultPageSize, query.Pagination.Limit)
	}
	if query.Pagination.Offset != 0 {
		t.Errorf("Expected negative offset to be set to 0, got %d", query.Pagination.Offset)
	}
}

func TestQueryNextPage(t *testing.T) {
	query := NewQuery().
		WithSearch("term").
		WithFilters(map[string]any{"Number": "x"}).
		WithSort("CreatedAt", SortDesc).
		WithPagination(10, 0)

	next := query.NextPage()

	if next == query {
		t.Fatal("NextPage should return a new instance")
	}
	if next.Search != "term" || next.Filters["Number"] != "x" || len(next.Sort) != 1 {
		t.Error("NextPage should copy search, filters and sort")
	}
	if next.Pagination.Offset != 10 || next.Pagination.Limit != 10 {
		t.Errorf("Expected next page 10/10, got %d/%d", next.Pagination.Offset, next.Pagination.Limit)
	}

	next.Filters["Number"] = "y"
	next.Sort[0].Direction = SortAsc
	if query.Filters["Number"] != "x" || query.Sort[0].Direction != SortDesc {
		t.Error("NextPage must not share filters or sort with the original query")
	}
}

func TestApplyDefaultSort(t *testing.T) {
	query := NewQuery()
	query.ApplyDefaultSort()

	if sort := query.GetPrimarySort(); sort == nil || *sort != DefaultSort {
		t.Errorf("Expected default sort %v, got %v", DefaultSort, sort)
	}

	sorted := NewQuery().WithSort("Number", SortAsc)
	sorted.ApplyDefaultSort()
	if len(sorted.Sort) != 1 || sorted.Sort[0].Field != "Number" {
		t.Error("ApplyDefaultSort should not override existing sort")
	}
}

func TestSortDirection(t *testing.T) {
	if SortAsc.String() != "asc" || SortDesc.String() != "desc" {
		t.Error("unexpected sort direction strings")
	}
	if !SortAsc.IsValid() || !SortDesc.IsValid() || SortDirection("sideways").IsValid() {
		t.Error("IsValid misreports")
	}
	if SortAsc.Opposite() != SortDesc || SortDesc.Opposite() != SortAsc {
		t.Error("Opposite misreports")
	}
}

func TestGetPageSizeFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want int
	}{
		{"", DefaultPageSize},
		{"25", 25},
		{"invalid", DefaultPageSize},
		{"1000", DefaultPageSize},
		{"0", DefaultPageSize},
	}
	for _, tt := range tests {
		t.Setenv("CONTRACTS_PAGE_SIZE", tt.env)
		if size := getPageSizeFromEnv(); size != tt.want {
			t.Errorf("CONTRACTS_PAGE_SIZE=%q: expected %d, got %d", tt.env, tt.want, size)
		}
	}
}
