package httpapi

import (
	"net/http"
	"time"

	app "github.com/R3E-Network/book_catalog/internal/app"
	"github.com/R3E-Network/book_catalog/internal/httputil"
)

// Version is reported by /info. It is overridden at build time.
var Version = "dev"

var startedAt = time.Now()

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// InfoResponse is the body of /info.
type InfoResponse struct {
	Status     string    `json:"status"`
	Service    string    `json:"service"`
	Version    string    `json:"version"`
	Uptime     string    `json:"uptime"`
	Statistics app.Stats `json:"statistics"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   h.log.Service(),
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, InfoResponse{
		Status:     "active",
		Service:    h.log.Service(),
		Version:    Version,
		Uptime:     time.Since(startedAt).Round(time.Second).String(),
		Statistics: h.app.Stats(),
	})
}
