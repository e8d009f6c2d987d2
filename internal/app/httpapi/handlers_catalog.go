package httpapi

import (
	stderrors "errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/book_catalog/internal/catalog"
	"github.com/R3E-Network/book_catalog/internal/errors"
	"github.com/R3E-Network/book_catalog/internal/httputil"
)

const (
	msgBookNotFound  = "Book not found!"
	msgNoAuthorMatch = "No books found for this author"
	msgNoTitleMatch  = "No books found for this title"
)

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.app.Catalog.All())
}

func (h *Handler) bookByISBN(w http.ResponseWriter, r *http.Request) {
	book, err := h.app.Catalog.Get(mux.Vars(r)["isbn"])
	if err != nil {
		h.writeError(w, r, catalogError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, book)
}

func (h *Handler) booksByAuthor(w http.ResponseWriter, r *http.Request) {
	matches := h.app.Catalog.ByAuthor(mux.Vars(r)["author"])
	if len(matches) == 0 {
		h.writeError(w, r, errors.NotFound(msgNoAuthorMatch))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (h *Handler) booksByTitle(w http.ResponseWriter, r *http.Request) {
	matches := h.app.Catalog.ByTitle(mux.Vars(r)["title"])
	if len(matches) == 0 {
		h.writeError(w, r, errors.NotFound(msgNoTitleMatch))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (h *Handler) bookReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.app.Catalog.Reviews(mux.Vars(r)["isbn"])
	if err != nil {
		h.writeError(w, r, catalogError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviews)
}

func catalogError(err error) error {
	if stderrors.Is(err, catalog.ErrBookNotFound) {
		return errors.NotFound(msgBookNotFound)
	}
	return err
}
