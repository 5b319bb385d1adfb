package pages

import (
	"context"
	"fmt"
	"net/url"

	"github.com/preslavrachev/e2eharness/harness"
)

const (
	contractListContainerID   = "dataContainer"
	addContractButtonID       = "addContractButton"
	createEditFormContainerID = "createEditFormContainer"
	contractNumberInputID     = "numberInput"
	contractConditionsInputID = "conditionsInput"
	saveContractButtonID      = "saveContractButton"
	searchInputID             = "contractSearchInput"
	contractListID            = "contractList"
	contractNumberTextID      = "contractNumber"
	contractConditionsTextID  = "contractConditions"
	editContractButtonID      = "editContract"
	deleteContractButtonID    = "deleteContract"
)

// Contract is a contract as the user types and reads it.
type Contract struct {
	Number     string
	Conditions string
}

// ContractUpdate lists the fields to change; empty fields are left as they
// are.
type ContractUpdate struct {
	Number     string
	Conditions string
}

// Apply returns c with the update's non-empty fields.
func (u ContractUpdate) Apply(c Contract) Contract {
	if u.Number != "" {
		c.Number = u.Number
	}
	if u.Conditions != "" {
		c.Conditions = u.Conditions
	}
	return c
}

// Contracts is the contract list together with the create and edit form.
type Contracts struct {
	s *Session
}

// list waits for the contract list and for it to finish loading.
func (p *Contracts) list(ctx context.Context) (*harness.Harness, error) {
	h, err := p.s.waitFor(ctx, hostContracts)
	if err != nil {
		return nil, err
	}
	if err := h.ExpectElementFree(ctx, contractListContainerID); err != nil {
		return nil, err
	}
	return h, nil
}

func (p *Contracts) row(list *harness.Harness, number string) *harness.Harness {
	return list.InTableRow(contractListID, map[string]string{"number": number})
}

// saveForm waits for the contract form, fills in the non-empty fields,
// saves and waits for the form to be left.
func (p *Contracts) saveForm(ctx context.Context, number, conditions string) error {
	h, err := p.s.waitFor(ctx, hostContract)
	if err != nil {
		return err
	}
	if err := h.ExpectElementFree(ctx, createEditFormContainerID); err != nil {
		return err
	}
	if number != "" {
		if err := h.Enter(ctx, contractNumberInputID, number); err != nil {
			return err
		}
	}
	if conditions != "" {
		if err := h.Enter(ctx, contractConditionsInputID, conditions); err != nil {
			return err
		}
	}
	if err := h.Click(ctx, saveContractButtonID); err != nil {
		return err
	}
	return p.s.waitForPageLeft(ctx, hostContract)
}

// CreateContract adds a contract through the form.
func (p *Contracts) CreateContract(ctx context.Context, c Contract) error {
	list, err := p.list(ctx)
	if err != nil {
		return err
	}
	if err := list.Click(ctx, addContractButtonID); err != nil {
		return err
	}
	if err := p.saveForm(ctx, c.Number, c.Conditions); err != nil {
		return fmt.Errorf("creating contract %s: %w", c.Number, err)
	}
	p.s.Log.WithField("number", c.Number).Debug("contract created")
	return nil
}

// EditContract opens the listed contract c and applies update. The contract
// must be in the current list.
func (p *Contracts) EditContract(ctx context.Context, c Contract, update ContractUpdate) error {
	list, err := p.list(ctx)
	if err != nil {
		return err
	}
	if err := p.row(list, c.Number).Click(ctx, editContractButtonID); err != nil {
		return err
	}
	if err := p.saveForm(ctx, update.Number, update.Conditions); err != nil {
		return fmt.Errorf("editing contract %s: %w", c.Number, err)
	}
	return nil
}

// DeleteContract deletes the listed contract c and confirms the message box.
func (p *Contracts) DeleteContract(ctx context.Context, c Contract) error {
	list, err := p.list(ctx)
	if err != nil {
		return err
	}
	if err := p.row(list, c.Number).Click(ctx, deleteContractButtonID); err != nil {
		return err
	}
	if err := list.ExpectMessageBox(ctx, harness.MessageTypeConfirm, fmt.Sprintf("Delete contract %s?", c.Number)); err != nil {
		return err
	}
	if err := list.MessageBoxClick(ctx, harness.MessageConfirm); err != nil {
		return err
	}
	err = list.Until(ctx, func(ctx context.Context) (bool, error) {
		open, err := list.MessageBoxPresent(ctx, harness.MessageTypeConfirm, "")
		return !open, err
	}, "Waiting for confirm message box closing failed: timeout exceeded, but message box is still open.")
	if err != nil {
		return err
	}
	return list.ExpectElementFree(ctx, contractListContainerID)
}

// SearchContract types term into the search field and waits until the list
// shows the results for it.
func (p *Contracts) SearchContract(ctx context.Context, term string) error {
	list, err := p.list(ctx)
	if err != nil {
		return err
	}
	if err := list.Enter(ctx, searchInputID, term); err != nil {
		return err
	}
	err = list.Until(ctx, func(context.Context) (bool, error) {
		u, err := url.Parse(p.s.Page.URL())
		if err != nil {
			return false, err
		}
		return u.Query().Get("q") == term, nil
	}, fmt.Sprintf("Waiting for search %q failed: timeout exceeded, but results are still not shown.", term))
	if err != nil {
		return err
	}
	return list.ExpectElementFree(ctx, contractListContainerID)
}

// ShouldSeeContract expects exactly one listed row for c's number, showing
// c's number and conditions.
func (p *Contracts) ShouldSeeContract(ctx context.Context, c Contract) error {
	list, err := p.list(ctx)
	if err != nil {
		return err
	}
	row := p.row(list, c.Number)
	if err := row.ExpectElementText(ctx, contractNumberTextID, c.Number); err != nil {
		return err
	}
	return row.ExpectElementText(ctx, contractConditionsTextID, c.Conditions)
}

// ShouldSeeNoContracts expects an empty list.
func (p *Contracts) ShouldSeeNoContracts(ctx context.Context) error {
	list, err := p.list(ctx)
	if err != nil {
		return err
	}
	return list.ExpectTableRowCount(ctx, contractListID, 0)
}
