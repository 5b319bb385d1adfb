package core

import (
	"errors"
	"strings"
	"testing"
)

func TestContractInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      ContractInput
		wantErr string
	}{
		{"valid", ContractInput{Number: "APXE2E 1"}, ""},
		{"blank number", ContractInput{Number: " \t", Conditions: "x"}, "Number: is required"},
		{"long number", ContractInput{Number: strings.Repeat("9", MaxNumberLength+1)}, "Number: must be at most 64 characters"},
		{"max number", ContractInput{Number: strings.Repeat("9", MaxNumberLength)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Normalize().Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got %v", err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("Expected %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestColumns(t *testing.T) {
	columns := Columns(&Contract{})

	if len(columns) != 2 {
		t.Fatalf("Expected 2 listed columns, got %d", len(columns))
	}
	number, conditions := columns[0], columns[1]

	if number.Key != "number" || number.DBName != "number" || number.Title != "Number" {
		t.Errorf("Unexpected number column %+v", number)
	}
	if !number.Searchable || !number.Sortable {
		t.Error("Number should be searchable and sortable")
	}
	if conditions.Key != "conditions" || !conditions.Searchable || conditions.Sortable {
		t.Errorf("Unexpected conditions column %+v", conditions)
	}
}

func TestColumnName(t *testing.T) {
	type Row struct {
		SignedAt string
		Owner    string `db:"owner_name"`
	}

	tests := []struct {
		model any
		field string
		want  string
	}{
		{Contract{}, "CreatedAt", "created_at"},
		{&Contract{}, "Number", "number"},
		{Row{}, "SignedAt", "signed_at"},
		{Row{}, "Owner", "owner_name"},
		{Row{}, "MissingField", "missing_field"},
	}
	for _, tt := range tests {
		if got := ColumnName(tt.model, tt.field); got != tt.want {
			t.Errorf("ColumnName(%T, %q) = %q, want %q", tt.model, tt.field, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("CreatedAt"); got != "Created at" {
		t.Errorf("Expected 'Created at', got %q", got)
	}
	if got := displayName(""); got != "" {
		t.Errorf("Expected empty, got %q", got)
	}
}
