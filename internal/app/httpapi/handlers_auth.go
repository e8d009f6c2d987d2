package httpapi

import (
	"net/http"
	"time"

	"github.com/R3E-Network/book_catalog/internal/errors"
	"github.com/R3E-Network/book_catalog/internal/httputil"
	"github.com/R3E-Network/book_catalog/internal/metrics"
	"github.com/R3E-Network/book_catalog/internal/session"
)

const (
	msgMissingCredentials = "Username and password are required."
	msgInvalidCredentials = "Invalid username or password."
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) decodeCredentials(r *http.Request) (credentials, error) {
	var creds credentials
	if r.ContentLength == 0 {
		return creds, errors.InvalidInput(msgMissingCredentials)
	}
	if !httputil.IsJSON(r) {
		return creds, errors.InvalidInput("Content-Type must be application/json")
	}
	if err := httputil.DecodeJSON(r.Body, &creds); err != nil {
		return creds, errors.InvalidInput("Invalid request body").WithDetails("reason", err.Error())
	}
	return creds, nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	creds, err := h.decodeCredentials(r)
	if err != nil {
		metrics.RecordRegistration(metrics.OutcomeRejected)
		h.writeError(w, r, err)
		return
	}

	if err := h.app.Users.Register(creds.Username, creds.Password); err != nil {
		metrics.RecordRegistration(outcomeFor(err))
		h.writeError(w, r, err)
		return
	}

	metrics.RecordRegistration(metrics.OutcomeSuccess)
	h.log.WithContext(r.Context()).WithField("username", creds.Username).Info("user registered")
	httputil.WriteJSON(w, http.StatusCreated, messageResponse{Message: "User registered successfully."})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	creds, err := h.decodeCredentials(r)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeRejected)
		h.writeError(w, r, err)
		return
	}
	if creds.Username == "" || creds.Password == "" {
		metrics.RecordLogin(metrics.OutcomeRejected)
		h.writeError(w, r, errors.InvalidInput(msgMissingCredentials))
		return
	}

	if !h.app.Users.Verify(creds.Username, creds.Password) {
		metrics.RecordLogin(metrics.OutcomeRejected)
		h.log.LogSecurityEvent(r.Context(), "login_failed", map[string]interface{}{
			"username": creds.Username,
		})
		h.writeError(w, r, errors.InvalidCredentials(msgInvalidCredentials))
		return
	}

	token, expiresAt, err := h.app.Sessions.Issue(creds.Username)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		h.writeError(w, r, errors.Internal("issue session", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	metrics.RecordLogin(metrics.OutcomeSuccess)
	h.log.WithContext(session.WithUsername(r.Context(), creds.Username)).Info("user logged in")
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Message:   "Logged in successfully.",
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	})
}

func outcomeFor(err error) string {
	if errors.HTTPStatus(err) >= http.StatusInternalServerError {
		return metrics.OutcomeError
	}
	return metrics.OutcomeRejected
}
