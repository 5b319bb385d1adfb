package core

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/preslavrachev/e2eharness/middleware/auth"
)

// memoryStore is a minimal ContractStore for testing.
type memoryStore struct {
	contracts []Contract
	lastQuery *Query
	failFind  error
}

func (m *memoryStore) Find(ctx context.Context, query *Query) (*Result[Contract], error) {
	m.lastQuery = query
	if m.failFind != nil {
		return nil, m.failFind
	}
	var items []Contract
	for _, c := range m.contracts {
		if strings.Contains(c.Number, query.Search) {
			items = append(items, c)
		}
	}
	return &Result[Contract]{Items: items, TotalCount: int64(len(items)), Query: *query}, nil
}

func (m *memoryStore) GetByID(ctx context.Context, id string) (*Contract, error) {
	for _, c := range m.contracts {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) Create(ctx context.Context, c *Contract) error {
	for _, existing := range m.contracts {
		if existing.Number == c.Number {
			return ErrDuplicateNumber
		}
	}
	m.contracts = append(m.contracts, *c)
	return nil
}

func (m *memoryStore) Update(ctx context.Context, c *Contract) error {
	for i := range m.contracts {
		if m.contracts[i].ID == c.ID {
			m.contracts[i] = *c
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.contracts = slices.DeleteFunc(m.contracts, func(c Contract) bool { return c.ID == id })
	return nil
}

func newTestApp(opts ...Option) (*App, *memoryStore) {
	store := &memoryStore{}
	app := New(store, auth.WithNoAuth(), opts...)
	app.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	return app, store
}

func TestNew_Defaults(t *testing.T) {
	app, _ := newTestApp()

	if app.GetConfig().Title != "Contracts" {
		t.Errorf("Expected default title, got %q", app.GetConfig().Title)
	}
	if !app.FeatureActive(FeatureContracts) {
		t.Error("Contracts feature should be active by default")
	}
	if app.GetAuth() == nil || app.GetAuth().Enabled {
		t.Error("Expected disabled auth config")
	}
}

func TestNew_Options(t *testing.T) {
	app, _ := newTestApp(WithTitle("Acme"), WithFeatures("FT_Reports"))

	if app.GetConfig().Title != "Acme" {
		t.Errorf("Expected title 'Acme', got %q", app.GetConfig().Title)
	}
	if app.FeatureActive(FeatureContracts) {
		t.Error("WithFeatures should replace the default flags")
	}
	if !app.FeatureActive("FT_Reports") {
		t.Error("FT_Reports should be active")
	}
}

func TestCreateContract(t *testing.T) {
	app, store := newTestApp()
	ctx := context.Background()

	c, err := app.CreateContract(ctx, ContractInput{Number: "  APXE2E 1 ", Conditions: " net 30 "})
	if err != nil {
		t.Fatalf("CreateContract failed: %v", err)
	}
	if c.Number != "APXE2E 1" || c.Conditions != "net 30" {
		t.Errorf("Expected trimmed fields, got %q / %q", c.Number, c.Conditions)
	}
	if len(c.ID) != 36 {
		t.Errorf("Expected a uuid id, got %q", c.ID)
	}
	if !c.CreatedAt.Equal(c.UpdatedAt) || c.CreatedAt.IsZero() {
		t.Errorf("Expected equal creation timestamps, got %v / %v", c.CreatedAt, c.UpdatedAt)
	}
	if len(store.contracts) != 1 {
		t.Errorf("Expected 1 stored contract, got %d", len(store.contracts))
	}

	if _, err := app.CreateContract(ctx, ContractInput{Number: "APXE2E 1"}); !errors.Is(err, ErrDuplicateNumber) {
		t.Errorf("Expected ErrDuplicateNumber, got %v", err)
	}
}

func TestCreateContract_Validation(t *testing.T) {
	app, store := newTestApp()

	tests := []struct {
		name   string
		number string
	}{
		{"blank", "   "},
		{"too long", strings.Repeat("x", MaxNumberLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.CreateContract(context.Background(), ContractInput{Number: tt.number})
			if !IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
	if len(store.contracts) != 0 {
		t.Error("Invalid contracts must not be stored")
	}
}

func TestUpdateContract(t *testing.T) {
	app, _ := newTestApp()
	ctx := context.Background()

	created, err := app.CreateContract(ctx, ContractInput{Number: "APXE2E 2"})
	if err != nil {
		t.Fatal(err)
	}
	app.now = func() time.Time { return created.CreatedAt.Add(time.Hour) }

	updated, err := app.UpdateContract(ctx, created.ID, ContractInput{Number: "APXE2E 2", Conditions: "updated"})
	if err != nil {
		t.Fatalf("UpdateContract failed: %v", err)
	}
	if updated.Conditions != "updated" {
		t.Errorf("Expected conditions 'updated', got %q", updated.Conditions)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Error("UpdatedAt should move forward")
	}

	stored, _ := app.GetContract(ctx, created.ID)
	if stored.Conditions != "updated" {
		t.Errorf("Expected stored conditions 'updated', got %q", stored.Conditions)
	}

	if _, err := app.UpdateContract(ctx, "6f1c3c57-55f8-4a34-8a7a-5c8f8d3c1e10", ContractInput{Number: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetContract_InvalidID(t *testing.T) {
	app, _ := newTestApp()

	if _, err := app.GetContract(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestDeleteContract(t *testing.T) {
	app, store := newTestApp()
	ctx := context.Background()

	c, _ := app.CreateContract(ctx, ContractInput{Number: "APXE2E 3"})
	if err := app.DeleteContract(ctx, c.ID); err != nil {
		t.Fatalf("DeleteContract failed: %v", err)
	}
	if len(store.contracts) != 0 {
		t.Error("Contract should be gone")
	}
	if err := app.DeleteContract(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListContracts(t *testing.T) {
	app, store := newTestApp()
	ctx := context.Background()

	app.CreateContract(ctx, ContractInput{Number: "APXE2E 1"})
	app.CreateContract(ctx, ContractInput{Number: "OTHER 2"})

	result, err := app.ListContracts(ctx, NewQuery().WithSearch("  APXE2E "))
	if err != nil {
		t.Fatalf("ListContracts failed: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Number != "APXE2E 1" {
		t.Errorf("Unexpected items %+v", result.Items)
	}
	if store.lastQuery.Search != "APXE2E" {
		t.Errorf("Expected trimmed search, got %q", store.lastQuery.Search)
	}
	if sort := store.lastQuery.GetPrimarySort(); sort == nil || *sort != DefaultSort {
		t.Errorf("Expected default sort, got %v", sort)
	}

	if _, err := app.ListContracts(ctx, NewQuery().WithSort("Number", "sideways")); err == nil {
		t.Error("Expected invalid sort direction to fail")
	}

	store.failFind = errors.New("disk on fire")
	if _, err := app.ListContracts(ctx, nil); err == nil || !strings.Contains(err.Error(), "listing contracts") {
		t.Errorf("Expected wrapped store error, got %v", err)
	}
}

type Category struct{}
type Box struct{}

func TestTableName(t *testing.T) {
	tests := []struct {
		model any
		want  string
	}{
		{&Contract{}, "contracts"},
		{Category{}, "categories"},
		{&Box{}, "boxes"},
	}
	for _, tt := range tests {
		if got := TableName(tt.model); got != tt.want {
			t.Errorf("TableName(%T) = %q, want %q", tt.model, got, tt.want)
		}
	}
}
