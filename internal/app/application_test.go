package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/book_catalog/internal/config"
)

func TestNewDefaults(t *testing.T) {
	application, err := New(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, Stats{Books: 10, Users: 0}, application.Stats())
	require.NoError(t, application.Users.Register("alice", "pw"))
	assert.Equal(t, 1, application.Stats().Users)
	assert.NotNil(t, application.Logger())
}

func TestNewIndependentInstances(t *testing.T) {
	a, err := New(config.Default(), nil)
	require.NoError(t, err)
	b, err := New(config.Default(), nil)
	require.NoError(t, err)

	require.NoError(t, a.Users.Register("alice", "pw"))
	assert.True(t, b.Users.IsAvailable("alice"))
}

func TestNewWithBcryptAndCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yaml")
	require.NoError(t, os.WriteFile(path, []byte("books:\n  - isbn: \"x1\"\n    author: A\n    title: T\n"), 0o600))

	cfg := config.Default()
	cfg.Catalog.Path = path
	cfg.Auth.Hashing = config.HashingBcrypt
	cfg.Auth.BcryptCost = 4

	application, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, application.Stats().Books)

	require.NoError(t, application.Users.Register("bob", "pw"))
	assert.True(t, application.Users.Verify("bob", "pw"))
}

func TestNewRejectsBadCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(cfg, nil)
	assert.Error(t, err)
}
