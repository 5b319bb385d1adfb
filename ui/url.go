package ui

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const contractsPath = "/contracts"

// ContractsURLBuilder builds links to the contract list
type ContractsURLBuilder struct {
	basePath string
	params   url.Values
}

// NewContractsURL creates a builder for the contract list
func NewContractsURL() *ContractsURLBuilder {
	return &ContractsURLBuilder{
		basePath: contractsPath,
		params:   make(url.Values),
	}
}

// ContractPath is the update target of a contract form.
func ContractPath(id string) string {
	return contractsPath + "/" + url.PathEscape(id)
}

// EditContractPath is the edit form of a contract.
func EditContractPath(id string) string {
	return ContractPath(id) + "/edit"
}

// DeleteContractPath shows and accepts the delete confirmation.
func DeleteContractPath(id string) string {
	return ContractPath(id) + "/delete"
}

// withSearch appends the search term to path, if any.
func withSearch(path, term string) string {
	if strings.TrimSpace(term) == "" {
		return path
	}
	return path + "?" + url.Values{searchParam: {term}}.Encode()
}

// PreserveFromRequest copies all user-facing parameters from the current request
func (b *ContractsURLBuilder) PreserveFromRequest(r *http.Request) *ContractsURLBuilder {
	for k, v := range r.URL.Query() {
		if !isInternalParam(k) {
			b.params[k] = v
		}
	}
	return b
}

// WithSearch sets the search term; a blank term removes it.
func (b *ContractsURLBuilder) WithSearch(term string) *ContractsURLBuilder {
	if strings.TrimSpace(term) == "" {
		b.params.Del(searchParam)
		return b
	}
	b.params.Set(searchParam, term)
	return b
}

// WithSort sets sorting parameters
func (b *ContractsURLBuilder) WithSort(field, direction string) *ContractsURLBuilder {
	if field != "" {
		b.params.Set("sort", field)
		if direction != "" {
			b.params.Set("direction", direction)
		}
	}
	return b
}

// WithPagination sets pagination parameters
func (b *ContractsURLBuilder) WithPagination(offset, limit int) *ContractsURLBuilder {
	b.params.Set("offset", strconv.Itoa(offset))
	b.params.Set("limit", strconv.Itoa(limit))
	return b
}

// WithParam sets an arbitrary parameter
func (b *ContractsURLBuilder) WithParam(key, value string) *ContractsURLBuilder {
	if key != "" {
		b.params.Set(key, value)
	}
	return b
}

// RemoveParam removes a parameter
func (b *ContractsURLBuilder) RemoveParam(key string) *ContractsURLBuilder {
	b.params.Del(key)
	return b
}

// String builds and returns the final URL
func (b *ContractsURLBuilder) String() string {
	if len(b.params) == 0 {
		return b.basePath
	}
	return b.basePath + "?" + b.params.Encode()
}

// isInternalParam reports parameters that only make sense for one response,
// such as flash messages
func isInternalParam(key string) bool {
	for _, param := range []string{"saved", "deleted"} {
		if strings.EqualFold(key, param) {
			return true
		}
	}
	return false
}
