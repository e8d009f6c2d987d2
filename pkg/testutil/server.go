// Package testutil provides common testing utilities for packages that need a
// running catalog API.
package testutil

import (
	"net/http/httptest"
	"testing"

	app "github.com/R3E-Network/book_catalog/internal/app"
	"github.com/R3E-Network/book_catalog/internal/app/httpapi"
	"github.com/R3E-Network/book_catalog/internal/config"
)

// Server is an in-process catalog API backed by a fresh application.
type Server struct {
	*httptest.Server
	App *app.Application
}

// NewServer starts a catalog API with the built-in catalog. It is shut down
// when the test ends. cfg may be nil.
func NewServer(t testing.TB, cfg *config.Config) *Server {
	t.Helper()

	application, err := app.New(cfg, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	handler, err := httpapi.NewHandler(application, httpapi.Options{})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		if err := handler.Close(); err != nil {
			t.Errorf("close handler: %v", err)
		}
	})
	return &Server{Server: srv, App: application}
}
