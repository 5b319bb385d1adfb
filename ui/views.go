package ui

import (
	"github.com/preslavrachev/e2eharness/core"
	"github.com/preslavrachev/e2eharness/middleware/auth"
)

//go:generate templ generate

// Page hosts. Every page renders inside the app-root host with its own host
// nested below.
const (
	HostRoot      = "app-root"
	HostLogin     = "app-login"
	HostHome      = "app-home"
	HostContracts = "app-contracts"
	HostContract  = "app-contract"
)

// LayoutData is the shell around every page.
type LayoutData struct {
	Title      string
	Features   []string
	User       *auth.AuthUser
	ShowHeader bool
}

func greeting(user *auth.AuthUser) string {
	if user == nil {
		return "Welcome"
	}
	return "Welcome, " + user.Username
}

// ContractsView is the data of the contract list.
type ContractsView struct {
	Search  string
	Columns []core.Column
	Result  *core.Result[core.Contract]
	// Sort is the active sort, used to flip header links.
	Sort *core.SortField
	// Notice is a one-off message such as "Contract saved".
	Notice string
}

// sortURL links a column header to the list sorted by col, flipping the
// direction when col is already the active sort.
func sortURL(view ContractsView, col core.Column) string {
	direction := core.SortAsc
	if view.Sort != nil && view.Sort.Field == col.Field {
		direction = view.Sort.Direction.Opposite()
	}
	return NewContractsURL().WithSearch(view.Search).WithSort(col.Field, direction.String()).String()
}

// cellID is the data-id of the cell showing field, e.g. "contractNumber".
func cellID(field string) string {
	return "contract" + field
}

func fieldValue(c core.Contract, field string) string {
	switch field {
	case "Number":
		return c.Number
	case "Conditions":
		return c.Conditions
	}
	return ""
}

// FormView is the data of the create and edit form.
type FormView struct {
	// ID is empty for a new contract.
	ID    string
	Input core.ContractInput
	Error string
}

func (v FormView) title() string {
	if v.ID == "" {
		return "New contract"
	}
	return "Edit contract"
}

func (v FormView) action() string {
	if v.ID == "" {
		return contractsPath
	}
	return ContractPath(v.ID)
}
