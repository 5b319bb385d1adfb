package ui

import (
	"net/http"
	"strings"
	"testing"
)

func TestContractPaths(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{ContractPath("abc"), "/contracts/abc"},
		{EditContractPath("abc"), "/contracts/abc/edit"},
		{DeleteContractPath("abc"), "/contracts/abc/delete"},
		{ContractPath("a b/c"), "/contracts/a%20b%2Fc"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, tt.got)
		}
	}
}

func TestWithSearch(t *testing.T) {
	tests := []struct {
		name     string
		term     string
		expected string
	}{
		{"term", "APXE2E", "/contracts?q=APXE2E"},
		{"term with space", "APXE2E 17", "/contracts?q=APXE2E+17"},
		{"blank", "  ", "/contracts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := NewContractsURL().WithSearch(tt.term).String(); result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}

	cleared := NewContractsURL().WithSearch("x").WithSearch("").String()
	if cleared != "/contracts" {
		t.Errorf("Expected blank search to remove the term, got %s", cleared)
	}
}

func TestWithSort(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		direction string
		expected  string
	}{
		{"field and direction", "Number", "asc", "/contracts?direction=asc&sort=Number"},
		{"field only", "Number", "", "/contracts?sort=Number"},
		{"empty field", "", "asc", "/contracts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := NewContractsURL().WithSort(tt.field, tt.direction).String(); result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestWithPagination(t *testing.T) {
	result := NewContractsURL().WithPagination(10, 20).String()
	if result != "/contracts?limit=20&offset=10" {
		t.Errorf("Unexpected URL %s", result)
	}
}

func TestPreserveFromRequest(t *testing.T) {
	req, err := http.NewRequest("GET", "/contracts?q=APXE2E&sort=Number&direction=desc&saved=1&DELETED=x", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	result := NewContractsURL().PreserveFromRequest(req).String()

	for _, param := range []string{"q=APXE2E", "sort=Number", "direction=desc"} {
		if !strings.Contains(result, param) {
			t.Errorf("Expected URL to contain %s, got %s", param, result)
		}
	}
	for _, param := range []string{"saved", "DELETED"} {
		if strings.Contains(result, param) {
			t.Errorf("Expected URL to NOT contain %s, got %s", param, result)
		}
	}
}

func TestWithParamAndRemoveParam(t *testing.T) {
	builder := NewContractsURL().WithParam("", "ignored").WithParam("number", "APXE2E 1").WithSort("Number", "asc")

	result := builder.RemoveParam("sort").RemoveParam("direction").String()
	if result != "/contracts?number=APXE2E+1" {
		t.Errorf("Unexpected URL %s", result)
	}
}
