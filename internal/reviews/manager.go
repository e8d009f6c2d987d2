// Package reviews applies review mutations on behalf of the authenticated
// user. A user holds at most one review per book and can only change or
// remove their own.
package reviews

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/R3E-Network/book_catalog/internal/catalog"
	"github.com/R3E-Network/book_catalog/internal/errors"
	"github.com/R3E-Network/book_catalog/internal/logging"
	"github.com/R3E-Network/book_catalog/internal/metrics"
	"github.com/R3E-Network/book_catalog/internal/session"
)

const (
	msgNotLoggedIn   = "User not authenticated."
	msgTextRequired  = "Review text is required (?review=...)."
	msgBookNotFound  = "Book not found!"
	msgNoUserReview  = "No review by this user for this book."
	msgReviewAdded   = "Review added."
	msgReviewUpdated = "Review updated."
	msgReviewDeleted = "Review deleted."
)

// Store is the part of the catalog the manager writes through.
type Store interface {
	UpdateReviews(isbn string, fn func(catalog.Reviews) error) (catalog.Reviews, error)
}

// Result describes a completed upsert.
type Result struct {
	Created bool
	Reviews catalog.Reviews
}

// Message is the client-facing confirmation for the upsert.
func (r Result) Message() string {
	if r.Created {
		return msgReviewAdded
	}
	return msgReviewUpdated
}

// DeletedMessage is the confirmation returned after Remove.
const DeletedMessage = msgReviewDeleted

// Manager enforces review ownership on top of a Store.
type Manager struct {
	store Store
	log   *logging.Logger
}

// NewManager creates a manager. A nil logger discards output.
func NewManager(store Store, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{store: store, log: log}
}

// Upsert sets the caller's review of isbn to the trimmed text.
func (m *Manager) Upsert(ctx context.Context, isbn, text string) (Result, error) {
	username, ok := session.Username(ctx)
	if !ok {
		metrics.RecordReviewMutation("upsert", metrics.OutcomeRejected)
		return Result{}, errors.Unauthenticated(msgNotLoggedIn)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		metrics.RecordReviewMutation("upsert", metrics.OutcomeRejected)
		return Result{}, errors.InvalidInput(msgTextRequired)
	}

	var created bool
	reviews, err := m.store.UpdateReviews(isbn, func(r catalog.Reviews) error {
		_, exists := r[username]
		created = !exists
		r[username] = text
		return nil
	})
	if err != nil {
		metrics.RecordReviewMutation("upsert", metrics.OutcomeRejected)
		return Result{}, mapStoreError(err)
	}

	op := "update"
	if created {
		op = "add"
	}
	metrics.RecordReviewMutation(op, metrics.OutcomeSuccess)
	m.log.WithContext(ctx).WithFields(map[string]interface{}{
		"isbn": isbn,
		"op":   op,
	}).Info("review saved")

	return Result{Created: created, Reviews: reviews}, nil
}

// Remove deletes the caller's review of isbn and returns the remaining
// reviews.
func (m *Manager) Remove(ctx context.Context, isbn string) (catalog.Reviews, error) {
	username, ok := session.Username(ctx)
	if !ok {
		metrics.RecordReviewMutation("delete", metrics.OutcomeRejected)
		return nil, errors.Unauthenticated(msgNotLoggedIn)
	}

	reviews, err := m.store.UpdateReviews(isbn, func(r catalog.Reviews) error {
		if _, exists := r[username]; !exists {
			return errors.NotFound(msgNoUserReview)
		}
		delete(r, username)
		return nil
	})
	if err != nil {
		metrics.RecordReviewMutation("delete", metrics.OutcomeRejected)
		return nil, mapStoreError(err)
	}

	metrics.RecordReviewMutation("delete", metrics.OutcomeSuccess)
	m.log.WithContext(ctx).WithField("isbn", isbn).Info("review deleted")

	if reviews == nil {
		reviews = catalog.Reviews{}
	}
	return reviews, nil
}

func mapStoreError(err error) error {
	if stderrors.Is(err, catalog.ErrBookNotFound) {
		return errors.NotFound(msgBookNotFound)
	}
	if errors.GetServiceError(err) != nil {
		return err
	}
	return errors.Internal("update reviews", err)
}
