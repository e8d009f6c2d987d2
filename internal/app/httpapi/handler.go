// Package httpapi exposes the book catalog over HTTP.
package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/book_catalog/internal/app"
	"github.com/R3E-Network/book_catalog/internal/errors"
	"github.com/R3E-Network/book_catalog/internal/httputil"
	"github.com/R3E-Network/book_catalog/internal/logging"
	"github.com/R3E-Network/book_catalog/internal/metrics"
	"github.com/R3E-Network/book_catalog/internal/middleware"
)

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins     []string
	AuditMaxEntries int
	AuditLogPath    string
	// SecureCookie marks the session cookie Secure. Enable behind TLS.
	SecureCookie bool
}

// Handler serves the REST API.
type Handler struct {
	app     *app.Application
	log     *logging.Logger
	audit   *auditLog
	sink    *fileAuditSink
	secure  bool
	handler http.Handler
}

// NewHandler builds the router and its middleware chain.
func NewHandler(application *app.Application, opts Options) (*Handler, error) {
	sink, err := newFileAuditSink(opts.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	h := &Handler{
		app:    application,
		log:    application.Logger(),
		sink:   sink,
		secure: opts.SecureCookie,
	}
	var auditOut auditSink
	if sink != nil {
		auditOut = sink
	}
	h.audit = newAuditLog(opts.AuditMaxEntries, auditOut)

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(h.notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
	router.Use(middleware.MetricsMiddleware())

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/info", h.info).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/register", h.register).Methods(http.MethodPost)
	router.HandleFunc("/login", h.login).Methods(http.MethodPost)

	router.HandleFunc("/", h.listBooks).Methods(http.MethodGet)
	router.HandleFunc("/isbn/{isbn}", h.bookByISBN).Methods(http.MethodGet)
	router.HandleFunc("/author/{author}", h.booksByAuthor).Methods(http.MethodGet)
	router.HandleFunc("/title/{title}", h.booksByTitle).Methods(http.MethodGet)
	router.HandleFunc("/review/{isbn}", h.bookReviews).Methods(http.MethodGet)

	auth := router.PathPrefix("/auth").Subrouter()
	auth.Use(middleware.NewAuthMiddleware(application.Sessions, h.log).Handler)
	auth.HandleFunc("/review/{isbn}", h.putReview).Methods(http.MethodPut)
	auth.HandleFunc("/review/{isbn}", h.deleteReview).Methods(http.MethodDelete)
	auth.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	// CORS and tracing wrap the router so preflights and unmatched paths are
	// covered too.
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	var chain http.Handler = router
	chain = middleware.NewCORSMiddleware(origins).Handler(chain)
	chain = middleware.NewTracingMiddleware(h.log).Handler(chain)
	h.handler = chain

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// Close releases the audit file, if any.
func (h *Handler) Close() error {
	return h.sink.Close()
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteServiceError(w, r, errors.NotFound("Route not found"))
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

// writeError logs unexpected failures and writes the error reply.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.HTTPStatus(err) >= http.StatusInternalServerError {
		h.log.WithContext(r.Context()).WithError(err).Error("request failed")
	}
	httputil.WriteServiceError(w, r, err)
}

type messageResponse struct {
	Message string `json:"message"`
}
