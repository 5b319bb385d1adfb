package core

import "context"

// ContractStore persists contracts.
type ContractStore interface {
	// Find returns one page of contracts matching query. Search matches any
	// searchable column as a case-insensitive substring.
	Find(ctx context.Context, query *Query) (*Result[Contract], error)

	// GetByID returns ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (*Contract, error)

	// Create stores c as is; it returns ErrDuplicateNumber when the number is
	// taken.
	Create(ctx context.Context, c *Contract) error

	// Update replaces the editable fields and UpdatedAt of the stored contract.
	Update(ctx context.Context, c *Contract) error

	Delete(ctx context.Context, id string) error
}
