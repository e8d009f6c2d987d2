package reviews

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/book_catalog/internal/catalog"
	"github.com/R3E-Network/book_catalog/internal/errors"
	"github.com/R3E-Network/book_catalog/internal/metrics"
	"github.com/R3E-Network/book_catalog/internal/session"
)

func newManager(t *testing.T) (*Manager, *catalog.Store) {
	t.Helper()
	store, err := catalog.NewDefault()
	require.NoError(t, err)
	return NewManager(store, nil), store
}

func as(username string) context.Context {
	return session.WithUsername(context.Background(), username)
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	m, store := newManager(t)

	res, err := m.Upsert(as("alice"), "1", "  Great  ")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Review added.", res.Message())
	assert.Equal(t, catalog.Reviews{"alice": "Great"}, res.Reviews)

	res, err = m.Upsert(as("alice"), "1", "Better")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "Review updated.", res.Message())
	assert.Equal(t, catalog.Reviews{"alice": "Better"}, res.Reviews)

	stored, err := store.Reviews("1")
	require.NoError(t, err)
	assert.Equal(t, catalog.Reviews{"alice": "Better"}, stored)
}

func TestUpsertIdempotent(t *testing.T) {
	m, store := newManager(t)

	_, err := m.Upsert(as("alice"), "2", "same")
	require.NoError(t, err)
	first, _ := store.Reviews("2")

	_, err = m.Upsert(as("alice"), "2", "same")
	require.NoError(t, err)
	second, _ := store.Reviews("2")

	assert.Equal(t, first, second)
}

func TestUpsertPreservesOtherUsers(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Upsert(as("alice"), "3", "alice's take")
	require.NoError(t, err)
	res, err := m.Upsert(as("bob"), "3", "bob's take")
	require.NoError(t, err)

	assert.Equal(t, catalog.Reviews{"alice": "alice's take", "bob": "bob's take"}, res.Reviews)
}

func TestUpsertErrors(t *testing.T) {
	m, store := newManager(t)

	tests := []struct {
		name    string
		ctx     context.Context
		isbn    string
		text    string
		code    errors.ErrorCode
		message string
	}{
		{"no identity", context.Background(), "1", "hi", errors.ErrCodeUnauthenticated, "User not authenticated."},
		{"blank text", as("alice"), "1", "   ", errors.ErrCodeInvalidInput, "Review text is required (?review=...)."},
		{"empty text", as("alice"), "1", "", errors.ErrCodeInvalidInput, "Review text is required (?review=...)."},
		{"unknown isbn", as("alice"), "999", "hi", errors.ErrCodeNotFound, "Book not found!"},
		{"identity checked first", context.Background(), "999", "", errors.ErrCodeUnauthenticated, "User not authenticated."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Upsert(tt.ctx, tt.isbn, tt.text)
			require.Error(t, err)
			se := errors.GetServiceError(err)
			require.NotNil(t, se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.message, se.Message)
		})
	}

	reviews, err := store.Reviews("1")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestRemove(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Upsert(as("alice"), "4", "mine")
	require.NoError(t, err)
	_, err = m.Upsert(as("bob"), "4", "his")
	require.NoError(t, err)

	remaining, err := m.Remove(as("alice"), "4")
	require.NoError(t, err)
	assert.Equal(t, catalog.Reviews{"bob": "his"}, remaining)

	_, err = m.Remove(as("alice"), "4")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	assert.Equal(t, "No review by this user for this book.", errors.GetServiceError(err).Message)

	remaining, err = m.Remove(as("bob"), "4")
	require.NoError(t, err)
	assert.NotNil(t, remaining)
	assert.Empty(t, remaining)
}

func TestRemoveErrors(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Remove(context.Background(), "1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthenticated))

	_, err = m.Remove(as("alice"), "999")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	assert.Equal(t, "Book not found!", errors.GetServiceError(err).Message)

	_, err = m.Remove(as("alice"), "1")
	assert.Equal(t, "No review by this user for this book.", errors.GetServiceError(err).Message)
}

func TestCannotRemoveOthersReview(t *testing.T) {
	m, store := newManager(t)

	_, err := m.Upsert(as("alice"), "6", "keep me")
	require.NoError(t, err)

	_, err = m.Remove(as("mallory"), "6")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	reviews, err := store.Reviews("6")
	require.NoError(t, err)
	assert.Equal(t, catalog.Reviews{"alice": "keep me"}, reviews)
}

func TestConcurrentUpsertsOnOneBook(t *testing.T) {
	m, store := newManager(t)

	const users = 40
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := as(fmt.Sprintf("reader-%d", i))
			_, err := m.Upsert(ctx, "8", "first")
			assert.NoError(t, err)
			_, err = m.Upsert(ctx, "8", "second")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	reviews, err := store.Reviews("8")
	require.NoError(t, err)
	require.Len(t, reviews, users)
	for user, text := range reviews {
		assert.Equal(t, "second", text, user)
	}
}

func TestMutationsAreCounted(t *testing.T) {
	m, _ := newManager(t)
	counter := func(op, outcome string) float64 {
		return testutil.ToFloat64(metrics.ReviewMutations.WithLabelValues(op, outcome))
	}

	addBefore := counter("add", metrics.OutcomeSuccess)
	deleteBefore := counter("delete", metrics.OutcomeSuccess)

	_, err := m.Upsert(as("zoe"), "10", "hi")
	require.NoError(t, err)
	_, err = m.Remove(as("zoe"), "10")
	require.NoError(t, err)

	assert.Equal(t, addBefore+1, counter("add", metrics.OutcomeSuccess))
	assert.Equal(t, deleteBefore+1, counter("delete", metrics.OutcomeSuccess))
}

type failingStore struct{ err error }

func (f failingStore) UpdateReviews(string, func(catalog.Reviews) error) (catalog.Reviews, error) {
	return nil, f.err
}

func TestStoreFailureIsInternal(t *testing.T) {
	m := NewManager(failingStore{err: fmt.Errorf("disk full")}, nil)

	_, err := m.Upsert(as("alice"), "1", "text")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))

	_, err = m.Remove(as("alice"), "1")
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
}
