// Package catalog holds the book catalog. The set of books is fixed once the
// store is built. Only each book's reviews change afterwards, under a lock
// owned by that book.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrBookNotFound is returned for an ISBN that is not in the catalog.
var ErrBookNotFound = errors.New("book not found")

//go:embed books.yaml
var defaultCatalog []byte

type entry struct {
	mu      sync.RWMutex
	author  string
	title   string
	reviews Reviews
}

func (e *entry) snapshot() Book {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Book{Author: e.author, Title: e.title, Reviews: e.reviews.Clone()}
}

// Store is an in-memory catalog keyed by ISBN.
type Store struct {
	books map[string]*entry
	order []string
}

// NewDefault builds the store from the built-in catalog.
func NewDefault() (*Store, error) {
	return Parse(defaultCatalog)
}

// LoadFile builds the store from a YAML catalog file.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Load uses the file at path, or the built-in catalog when path is empty.
func Load(path string) (*Store, error) {
	if path == "" {
		return NewDefault()
	}
	return LoadFile(path)
}

// Parse builds the store from YAML catalog data.
func Parse(data []byte) (*Store, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	s := &Store{books: make(map[string]*entry, len(seed.Books))}
	for i, b := range seed.Books {
		isbn := strings.TrimSpace(b.ISBN)
		if isbn == "" {
			return nil, fmt.Errorf("catalog entry %d: isbn is required", i)
		}
		if _, dup := s.books[isbn]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate isbn %q", i, isbn)
		}
		s.books[isbn] = &entry{author: b.Author, title: b.Title, reviews: b.Reviews.Clone()}
		s.order = append(s.order, isbn)
	}
	return s, nil
}

// Len returns the number of books.
func (s *Store) Len() int {
	return len(s.order)
}

// ISBNs returns every ISBN in catalog order.
func (s *Store) ISBNs() []string {
	return append([]string(nil), s.order...)
}

// All returns a copy of the whole catalog.
func (s *Store) All() map[string]Book {
	out := make(map[string]Book, len(s.books))
	for isbn, e := range s.books {
		out[isbn] = e.snapshot()
	}
	return out
}

// Get returns the book with the given ISBN.
func (s *Store) Get(isbn string) (Book, error) {
	e, ok := s.books[isbn]
	if !ok {
		return Book{}, ErrBookNotFound
	}
	return e.snapshot(), nil
}

// ByAuthor returns every book whose lowercased author equals the lowercased
// query.
func (s *Store) ByAuthor(author string) []Listing {
	want := strings.ToLower(author)
	return s.match(func(e *entry) bool { return strings.ToLower(e.author) == want })
}

// ByTitle returns every book whose lowercased title equals the lowercased
// query.
func (s *Store) ByTitle(title string) []Listing {
	want := strings.ToLower(title)
	return s.match(func(e *entry) bool { return strings.ToLower(e.title) == want })
}

// author and title never change, so match reads them without the lock.
func (s *Store) match(keep func(*entry) bool) []Listing {
	var out []Listing
	for _, isbn := range s.order {
		e := s.books[isbn]
		if keep(e) {
			out = append(out, Listing{ISBN: isbn, Book: e.snapshot()})
		}
	}
	return out
}

// Reviews returns a copy of a book's reviews. The map is never nil.
func (s *Store) Reviews(isbn string) (Reviews, error) {
	e, ok := s.books[isbn]
	if !ok {
		return nil, ErrBookNotFound
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reviews.Clone(), nil
}

// UpdateReviews runs fn on the book's review map while holding the book's
// write lock and returns a copy of the map afterwards. If fn fails the error
// is returned as is and no snapshot is taken.
func (s *Store) UpdateReviews(isbn string, fn func(Reviews) error) (Reviews, error) {
	e, ok := s.books[isbn]
	if !ok {
		return nil, ErrBookNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reviews == nil {
		e.reviews = make(Reviews)
	}
	if err := fn(e.reviews); err != nil {
		return nil, err
	}
	return e.reviews.Clone(), nil
}
