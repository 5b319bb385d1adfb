package e2e

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/preslavrachev/e2eharness/pages"
)

// featureContracts gates the contract screens of the app.
const featureContracts = "FT_Contracts"

// Case is one scenario of a suite.
type Case struct {
	Name string
	Fn   func(*Runner) error
}

// Suite is a named group of cases sharing setup and teardown.
type Suite struct {
	Name string
	// BeforeEach runs before every case; a failure fails the case without
	// running it.
	BeforeEach func(*Runner) error
	// AfterEach runs after every case whose BeforeEach succeeded.
	AfterEach func(*Runner) error
	Cases     []Case
}

// RunSuite runs s as one test with a subtest per case.
func (r *Runner) RunSuite(s Suite) {
	r.Run(s.Name, func(r *Runner) error {
		for _, c := range s.Cases {
			r.RunSubtest(s.Name, c.Name, func(r *Runner) error {
				return s.runCase(r, c)
			})
		}
		return nil
	})
}

func (s Suite) runCase(r *Runner, c Case) error {
	if s.BeforeEach != nil {
		if err := s.BeforeEach(r); err != nil {
			return fmt.Errorf("before each: %w", err)
		}
	}
	err := c.Fn(r)
	if s.AfterEach == nil {
		return err
	}
	afterErr := s.AfterEach(r)
	if afterErr == nil {
		return err
	}
	afterErr = fmt.Errorf("after each: %w", afterErr)
	if err == nil || errors.Is(err, ErrSkipped) {
		return afterErr
	}
	return errors.Join(err, afterErr)
}

// contractNumbers hands out "APXE2E <unix millis>" numbers, strictly
// increasing even when two are requested within the same millisecond.
type contractNumbers struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func (n *contractNumbers) next() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	ms := n.now().UnixMilli()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	return fmt.Sprintf("APXE2E %d", ms)
}

func logout(r *Runner) error {
	return r.Session().AppShell().Logout(r.Context())
}

// GeneralSuite checks that a user can sign in.
func GeneralSuite() Suite {
	return Suite{
		Name:      "General app functionality",
		AfterEach: logout,
		Cases: []Case{
			{Name: "login the app", Fn: func(r *Runner) error {
				s, ctx := r.Session(), r.Context()
				if err := s.Login().Login(ctx); err != nil {
					return err
				}
				return s.AppShell().ShouldBeLogged(ctx)
			}},
		},
	}
}

// ContractsSuite creates, edits and deletes contracts. Its cases are skipped
// when the app runs without the contracts feature. now stamps the contract
// numbers.
func ContractsSuite(now func() time.Time) Suite {
	if now == nil {
		now = time.Now
	}
	numbers := &contractNumbers{now: now}
	newContract := func() pages.Contract {
		return pages.Contract{Number: numbers.next(), Conditions: "E2E test conditions"}
	}
	requireContracts := func(r *Runner) error {
		active, err := r.Session().FeatureActive(r.Context(), featureContracts)
		if err != nil {
			return err
		}
		if !active {
			return Skip(featureContracts + " is not active")
		}
		return nil
	}

	return Suite{
		Name: "Contracts",
		BeforeEach: func(r *Runner) error {
			s, ctx := r.Session(), r.Context()
			if err := s.Login().Login(ctx); err != nil {
				return err
			}
			active, err := s.FeatureActive(ctx, featureContracts)
			if err != nil || !active {
				return err
			}
			return s.Home().OpenContracts(ctx)
		},
		AfterEach: logout,
		Cases: []Case{
			{Name: "create a contract", Fn: func(r *Runner) error {
				if err := requireContracts(r); err != nil {
					return err
				}
				contracts, ctx := r.Session().Contracts(), r.Context()
				contract := newContract()
				if err := contracts.CreateContract(ctx, contract); err != nil {
					return err
				}
				if err := contracts.SearchContract(ctx, contract.Number); err != nil {
					return err
				}
				return contracts.ShouldSeeContract(ctx, contract)
			}},
			{Name: "edit a contract", Fn: func(r *Runner) error {
				if err := requireContracts(r); err != nil {
					return err
				}
				contracts, ctx := r.Session().Contracts(), r.Context()
				contract := newContract()
				if err := contracts.CreateContract(ctx, contract); err != nil {
					return err
				}
				update := pages.ContractUpdate{
					Number:     contract.Number + " (edited)",
					Conditions: contract.Conditions + " (edited)",
				}
				if err := contracts.SearchContract(ctx, contract.Number); err != nil {
					return err
				}
				if err := contracts.EditContract(ctx, contract, update); err != nil {
					return err
				}
				contract = update.Apply(contract)
				if err := contracts.SearchContract(ctx, contract.Number); err != nil {
					return err
				}
				return contracts.ShouldSeeContract(ctx, contract)
			}},
			{Name: "delete a contract", Fn: func(r *Runner) error {
				if err := requireContracts(r); err != nil {
					return err
				}
				contracts, ctx := r.Session().Contracts(), r.Context()
				contract := newContract()
				if err := contracts.CreateContract(ctx, contract); err != nil {
					return err
				}
				if err := contracts.SearchContract(ctx, contract.Number); err != nil {
					return err
				}
				if err := contracts.DeleteContract(ctx, contract); err != nil {
					return err
				}
				return contracts.ShouldSeeNoContracts(ctx)
			}},
		},
	}
}

// Suites returns every suite in the order they run.
func Suites() []Suite {
	return []Suite{GeneralSuite(), ContractsSuite(time.Now)}
}
