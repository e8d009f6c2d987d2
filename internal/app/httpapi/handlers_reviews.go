package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/book_catalog/internal/catalog"
	"github.com/R3E-Network/book_catalog/internal/errors"
	"github.com/R3E-Network/book_catalog/internal/httputil"
	"github.com/R3E-Network/book_catalog/internal/logging"
	"github.com/R3E-Network/book_catalog/internal/reviews"
	"github.com/R3E-Network/book_catalog/internal/session"
)

type reviewsResponse struct {
	Message string          `json:"message"`
	Reviews catalog.Reviews `json:"reviews"`
}

func (h *Handler) putReview(w http.ResponseWriter, r *http.Request) {
	isbn := mux.Vars(r)["isbn"]

	result, err := h.app.Reviews.Upsert(r.Context(), isbn, r.URL.Query().Get("review"))
	if err != nil {
		h.recordAudit(r, isbn, "put", errors.HTTPStatus(err))
		h.writeError(w, r, err)
		return
	}

	h.recordAudit(r, isbn, "put", http.StatusOK)
	httputil.WriteJSON(w, http.StatusOK, reviewsResponse{Message: result.Message(), Reviews: result.Reviews})
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	isbn := mux.Vars(r)["isbn"]

	remaining, err := h.app.Reviews.Remove(r.Context(), isbn)
	if err != nil {
		h.recordAudit(r, isbn, "delete", errors.HTTPStatus(err))
		h.writeError(w, r, err)
		return
	}

	h.recordAudit(r, isbn, "delete", http.StatusOK)
	httputil.WriteJSON(w, http.StatusOK, reviewsResponse{Message: reviews.DeletedMessage, Reviews: remaining})
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	username, ok := session.Username(r.Context())
	if !ok {
		h.writeError(w, r, errors.Unauthenticated("User not authenticated"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, r, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": h.audit.listFor(username, limit)})
}

func (h *Handler) recordAudit(r *http.Request, isbn, action string, status int) {
	username, _ := session.Username(r.Context())
	entry := auditEntry{
		Time:    time.Now().UTC(),
		User:    username,
		ISBN:    isbn,
		Action:  action,
		Status:  status,
		TraceID: logging.GetTraceID(r.Context()),
	}
	if err := h.audit.add(entry); err != nil {
		h.log.WithContext(r.Context()).WithError(err).Warn("audit sink write failed")
	}
}
