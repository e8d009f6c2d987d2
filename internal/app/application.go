// Package app composes the catalog, identity, session and review components
// into one Application that the HTTP layer and the runtime share.
package app

import (
	"fmt"

	"github.com/R3E-Network/book_catalog/internal/catalog"
	"github.com/R3E-Network/book_catalog/internal/config"
	"github.com/R3E-Network/book_catalog/internal/identity"
	"github.com/R3E-Network/book_catalog/internal/logging"
	"github.com/R3E-Network/book_catalog/internal/reviews"
	"github.com/R3E-Network/book_catalog/internal/session"
)

// Application ties domain components together and manages their lifecycle.
type Application struct {
	log *logging.Logger

	Catalog  *catalog.Store
	Users    *identity.Registry
	Sessions *session.Issuer
	Reviews  *reviews.Manager
}

// Stats summarises application state for the info endpoint.
type Stats struct {
	Books int `json:"books"`
	Users int `json:"users"`
}

// New builds an application from configuration. A nil logger discards
// output.
func New(cfg *config.Config, log *logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.NewNop()
	}

	store, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	issuer, err := session.NewIssuer(session.Config{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, err
	}

	var hasher identity.PasswordHasher = identity.PlainText{}
	if cfg.Auth.Hashing == config.HashingBcrypt {
		hasher = identity.Bcrypt{Cost: cfg.Auth.BcryptCost}
	} else {
		log.Warn("passwords are stored in plain text; set PASSWORD_HASHING=bcrypt outside development")
	}

	log.WithFields(map[string]interface{}{
		"books":   store.Len(),
		"catalog": catalogSource(cfg.Catalog.Path),
	}).Info("catalog loaded")

	return &Application{
		log:      log,
		Catalog:  store,
		Users:    identity.NewRegistry(identity.WithHasher(hasher)),
		Sessions: issuer,
		Reviews:  reviews.NewManager(store, log),
	}, nil
}

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger {
	return a.log
}

// Stats returns current counts.
func (a *Application) Stats() Stats {
	return Stats{Books: a.Catalog.Len(), Users: a.Users.Count()}
}

func catalogSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
