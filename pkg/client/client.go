// Package client is a Go client for the book catalog HTTP API. Every call
// takes a context and can be cancelled. BooksByISBN fetches several books
// concurrently.
package client

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/R3E-Network/book_catalog/internal/httputil"
)

// Reviews maps a username to that user's review text.
type Reviews map[string]string

// Book is a catalog record.
type Book struct {
	Author  string  `json:"author"`
	Title   string  `json:"title"`
	Reviews Reviews `json:"reviews"`
}

// Listing is a search result.
type Listing struct {
	ISBN string `json:"isbn"`
	Book
}

// Session is the result of a successful login.
type Session struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReviewResult is returned by review mutations.
type ReviewResult struct {
	Message string  `json:"message"`
	Reviews Reviews `json:"reviews"`
}

// APIError is returned for any 4xx or 5xx reply.
type APIError = httputil.StatusError

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsStatus reports whether err is an API error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	// Concurrency bounds BooksByISBN fan-out. Zero means 4.
	Concurrency int
}

// Client calls the book catalog API.
type Client struct {
	http        *httputil.Client
	concurrency int
}

// New creates a client.
func New(cfg Config) *Client {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Client{
		http: httputil.NewClient(httputil.ClientConfig{
			BaseURL:    cfg.BaseURL,
			Token:      cfg.Token,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}),
		concurrency: concurrency,
	}
}

// WithToken returns a copy of the client authenticated with token.
func (c *Client) WithToken(token string) *Client {
	return &Client{http: c.http.WithToken(token), concurrency: c.concurrency}
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.http.Get(ctx, path)
	if err != nil {
		return err
	}
	return httputil.DecodeResponse(resp, out)
}

// Books returns the whole catalog keyed by ISBN.
func (c *Client) Books(ctx context.Context) (map[string]Book, error) {
	var books map[string]Book
	if err := c.get(ctx, "/", &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Book returns one book.
func (c *Client) Book(ctx context.Context, isbn string) (Book, error) {
	var book Book
	err := c.get(ctx, "/isbn/"+url.PathEscape(isbn), &book)
	return book, err
}

// BooksByISBN fetches the given books concurrently. The first failure
// cancels the remaining requests.
func (c *Client) BooksByISBN(ctx context.Context, isbns ...string) (map[string]Book, error) {
	results := make([]Book, len(isbns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, isbn := range isbns {
		g.Go(func() error {
			book, err := c.Book(gctx, isbn)
			if err != nil {
				return err
			}
			results[i] = book
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Book, len(isbns))
	for i, isbn := range isbns {
		out[isbn] = results[i]
	}
	return out, nil
}

// BooksByAuthor returns the books whose author matches case-insensitively.
func (c *Client) BooksByAuthor(ctx context.Context, author string) ([]Listing, error) {
	var listings []Listing
	err := c.get(ctx, "/author/"+url.PathEscape(author), &listings)
	return listings, err
}

// BooksByTitle returns the books whose title matches case-insensitively.
func (c *Client) BooksByTitle(ctx context.Context, title string) ([]Listing, error) {
	var listings []Listing
	err := c.get(ctx, "/title/"+url.PathEscape(title), &listings)
	return listings, err
}

// Reviews returns a book's reviews.
func (c *Client) Reviews(ctx context.Context, isbn string) (Reviews, error) {
	var reviews Reviews
	if err := c.get(ctx, "/review/"+url.PathEscape(isbn), &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a user.
func (c *Client) Register(ctx context.Context, username, password string) error {
	resp, err := c.http.Post(ctx, "/register", credentials{Username: username, Password: password})
	if err != nil {
		return err
	}
	return httputil.DecodeResponse(resp, nil)
}

// Login verifies credentials and returns a session token. Use WithToken to
// make authenticated calls with it.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	var s Session
	resp, err := c.http.Post(ctx, "/login", credentials{Username: username, Password: password})
	if err != nil {
		return s, err
	}
	err = httputil.DecodeResponse(resp, &s)
	return s, err
}

// PutReview adds or replaces the caller's review of a book.
func (c *Client) PutReview(ctx context.Context, isbn, text string) (ReviewResult, error) {
	var out ReviewResult
	path := "/auth/review/" + url.PathEscape(isbn) + "?" + url.Values{"review": {text}}.Encode()
	resp, err := c.http.Put(ctx, path, nil)
	if err != nil {
		return out, err
	}
	err = httputil.DecodeResponse(resp, &out)
	return out, err
}

// DeleteReview removes the caller's review of a book.
func (c *Client) DeleteReview(ctx context.Context, isbn string) (ReviewResult, error) {
	var out ReviewResult
	resp, err := c.http.Delete(ctx, "/auth/review/"+url.PathEscape(isbn))
	if err != nil {
		return out, err
	}
	err = httputil.DecodeResponse(resp, &out)
	return out, err
}
