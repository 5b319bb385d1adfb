package core

import (
	"maps"
	"os"
	"strconv"
)

// Constants for pagination
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// SortDirection represents the sort order
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortField represents a column to sort by
type SortField struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort lists the newest contracts first.
var DefaultSort = SortField{Field: "CreatedAt", Direction: SortDesc}

// Pagination represents pagination parameters
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Query represents a contract search with exact-match filters, a free text
// term, sorting and pagination.
type Query struct {
	Search     string         `json:"search"`
	Filters    map[string]any `json:"filters"`
	Sort       []SortField    `json:"sort"`
	Pagination Pagination     `json:"pagination"`
}

// Result represents one page of query results
type Result[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	HasMore    bool  `json:"has_more"`
	Query      Query `json:"query"`
}

// NewQuery creates a new Query with default pagination
func NewQuery() *Query {
	return &Query{
		Filters: make(map[string]any),
		Sort:    []SortField{},
		Pagination: Pagination{
			Limit:  getPageSizeFromEnv(),
			Offset: 0,
		},
	}
}

// WithSearch sets the free text term. Blank terms are ignored.
func (q *Query) WithSearch(term string) *Query {
	q.Search = term
	return q
}

// WithFilters adds filters to the query
func (q *Query) WithFilters(filters map[string]any) *Query {
	maps.Copy(q.Filters, filters)
	return q
}

// WithSort adds a sort field to the query
func (q *Query) WithSort(field string, direction SortDirection) *Query {
	q.Sort = append(q.Sort, SortField{
		Field:     field,
		Direction: direction,
	})
	return q
}

// WithPagination sets pagination parameters
func (q *Query) WithPagination(limit, offset int) *Query {
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if limit <= 0 {
		limit = getPageSizeFromEnv()
	}
	if offset < 0 {
		offset = 0
	}

	q.Pagination.Limit = limit
	q.Pagination.Offset = offset
	return q
}

// NextPage creates a new query for the next page
func (q *Query) NextPage() *Query {
	next := &Query{
		Search:     q.Search,
		Filters:    maps.Clone(q.Filters),
		Sort:       append([]SortField(nil), q.Sort...),
		Pagination: q.Pagination,
	}
	if next.Filters == nil {
		next.Filters = make(map[string]any)
	}
	next.Pagination.Offset += next.Pagination.Limit
	return next
}

// GetCurrentPage returns the current page number (1-indexed)
func (q *Query) GetCurrentPage() int {
	if q.Pagination.Limit <= 0 {
		return 1
	}
	return (q.Pagination.Offset / q.Pagination.Limit) + 1
}

// HasFilters returns true if the query has any filters
func (q *Query) HasFilters() bool {
	return len(q.Filters) > 0
}

// HasSearch returns true if the query has a free text term
func (q *Query) HasSearch() bool {
	return q.Search != ""
}

// HasSort returns true if the query has sorting
func (q *Query) HasSort() bool {
	return len(q.Sort) > 0
}

// GetPrimarySort returns the first sort field, or nil if none
func (q *Query) GetPrimarySort() *SortField {
	if len(q.Sort) > 0 {
		return &q.Sort[0]
	}
	return nil
}

// ApplyDefaultSort applies DefaultSort if no sort is specified
func (q *Query) ApplyDefaultSort() {
	if q.HasSort() {
		return
	}
	q.WithSort(DefaultSort.Field, DefaultSort.Direction)
}

// getPageSizeFromEnv gets page size from environment variable or default
func getPageSizeFromEnv() int {
	if envSize := os.Getenv("CONTRACTS_PAGE_SIZE"); envSize != "" {
		if size, err := strconv.Atoi(envSize); err == nil && size > 0 && size <= MaxPageSize {
			return size
		}
	}
	return DefaultPageSize
}

// String returns a string representation of the sort direction
func (sd SortDirection) String() string {
	return string(sd)
}

// IsValid checks if the sort direction is valid
func (sd SortDirection) IsValid() bool {
	return sd == SortAsc || sd == SortDesc
}

// Opposite returns the opposite sort direction
func (sd SortDirection) Opposite() SortDirection {
	if sd == SortAsc {
		return SortDesc
	}
	return SortAsc
}
