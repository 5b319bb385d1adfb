package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no contract has the requested id.
	ErrNotFound = errors.New("contract not found")

	// ErrDuplicateNumber is returned when a contract number is already taken.
	ErrDuplicateNumber = errors.New("contract number already exists")
)

// MaxNumberLength bounds Contract.Number.
const MaxNumberLength = 64

// Contract is the single resource of the contracts app. Fields tagged with
// list appear as columns of the contract list.
type Contract struct {
	ID         string    `db:"id" json:"id"`
	Number     string    `db:"number" json:"number" list:"searchable,sortable"`
	Conditions string    `db:"conditions" json:"conditions" list:"searchable"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ContractInput holds the user editable fields of a contract.
type ContractInput struct {
	Number     string `json:"number"`
	Conditions string `json:"conditions"`
}

// ValidationError reports an invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Normalize trims surrounding whitespace from every field.
func (in ContractInput) Normalize() ContractInput {
	return ContractInput{
		Number:     strings.TrimSpace(in.Number),
		Conditions: strings.TrimSpace(in.Conditions),
	}
}

// Validate checks the input after normalization.
func (in ContractInput) Validate() error {
	switch {
	case in.Number == "":
		return &ValidationError{Field: "Number", Message: "is required"}
	case len(in.Number) > MaxNumberLength:
		return &ValidationError{Field: "Number", Message: fmt.Sprintf("must be at most %d characters", MaxNumberLength)}
	}
	return nil
}
