package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/sirupsen/logrus"

	"github.com/preslavrachev/e2eharness/middleware/auth"
)

// FeatureContracts gates the contracts pages.
const FeatureContracts = "FT_Contracts"

// App is the contracts application: the store, its configuration and the
// operations the UI performs.
type App struct {
	store  ContractStore
	config *Config
	log    logrus.FieldLogger
	now    func() time.Time
}

// Config holds configuration for the App instance
type Config struct {
	Title      string                            `json:"title"`
	Features   []string                          `json:"features"`
	Middleware []func(http.Handler) http.Handler `json:"-"`
	Auth       *auth.AuthConfig                  `json:"-"`
}

// Option customizes an App.
type Option func(*App)

// WithTitle sets the title shown in the app header.
func WithTitle(title string) Option {
	return func(a *App) { a.config.Title = title }
}

// WithFeatures replaces the active feature flags.
func WithFeatures(features ...string) Option {
	return func(a *App) { a.config.Features = slices.Clone(features) }
}

// WithMiddleware wraps every request after authentication.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(a *App) { a.config.Middleware = append(a.config.Middleware, mw...) }
}

// WithLogger sets the logger; the logrus standard logger is used otherwise.
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *App) { a.log = log }
}

// New creates a new App over store with the given auth configuration
func New(store ContractStore, authConfig auth.AuthConfig, opts ...Option) *App {
	app := &App{
		store: store,
		config: &Config{
			Title:    "Contracts",
			Features: []string{FeatureContracts},
			Auth:     &authConfig,
		},
		log: logrus.StandardLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// GetConfig returns the configuration
func (a *App) GetConfig() *Config {
	return a.config
}

// GetAuth returns the authentication configuration
func (a *App) GetAuth() *auth.AuthConfig {
	return a.config.Auth
}

// Logger returns the app logger.
func (a *App) Logger() logrus.FieldLogger {
	return a.log
}

// FeatureActive reports whether the named feature flag is on.
func (a *App) FeatureActive(name string) bool {
	return slices.Contains(a.config.Features, name)
}

// ListContracts returns one page of contracts, newest first unless the query
// sorts otherwise.
func (a *App) ListContracts(ctx context.Context, query *Query) (*Result[Contract], error) {
	if query == nil {
		query = NewQuery()
	}
	query.Search = strings.TrimSpace(query.Search)
	query.ApplyDefaultSort()
	for _, s := range query.Sort {
		if !s.Direction.IsValid() {
			return nil, fmt.Errorf("invalid sort direction %q for %s", s.Direction, s.Field)
		}
	}

	result, err := a.store.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing contracts: %w", err)
	}
	return result, nil
}

// GetContract returns ErrNotFound for unknown ids.
func (a *App) GetContract(ctx context.Context, id string) (*Contract, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return a.store.GetByID(ctx, id)
}

// CreateContract validates in and stores a new contract under a fresh id.
func (a *App) CreateContract(ctx context.Context, in ContractInput) (*Contract, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := a.now().UTC()
	c := &Contract{
		ID:         uuid.NewString(),
		Number:     in.Number,
		Conditions: in.Conditions,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.Create(ctx, c); err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"id": c.ID, "number": c.Number}).Info("contract created")
	return c, nil
}

// UpdateContract replaces the editable fields of the contract with id.
func (a *App) UpdateContract(ctx context.Context, id string, in ContractInput) (*Contract, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	c, err := a.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Number = in.Number
	c.Conditions = in.Conditions
	c.UpdatedAt = a.now().UTC()
	if err := a.store.Update(ctx, c); err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"id": c.ID, "number": c.Number}).Info("contract updated")
	return c, nil
}

// DeleteContract removes the contract with id.
func (a *App) DeleteContract(ctx context.Context, id string) error {
	if _, err := a.GetContract(ctx, id); err != nil {
		return err
	}
	if err := a.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting contract %s: %w", id, err)
	}
	a.log.WithField("id", id).Info("contract deleted")
	return nil
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// TableName derives the storage table of a model: the snake_case plural of
// its type name.
func TableName(model any) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return pluralize(strcase.ToSnake(t.Name()))
}

// Basic pluralization - can be enhanced later
func pluralize(word string) string {
	if strings.HasSuffix(word, "y") {
		return strings.TrimSuffix(word, "y") + "ies"
	}
	if strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") ||
		strings.HasSuffix(word, "z") || strings.HasSuffix(word, "ch") ||
		strings.HasSuffix(word, "sh") {
		return word + "es"
	}
	return word + "s"
}
