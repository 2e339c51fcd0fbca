package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/idgateway/internal/api/apierr"
	"github.com/mcoot/idgateway/internal/services/identity"
	"github.com/mcoot/idgateway/internal/services/session"
)

// AuthHandler handles the OAuth initiation and callback routes
type AuthHandler struct {
	identity *identity.Service
	sessions *session.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity *identity.Service, sessions *session.Service) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		sessions: sessions,
	}
}

// Initiate handles GET /auth/{provider}
func (h *AuthHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]

	authURL, state, err := h.identity.Initiate(r.Context(), provider)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	h.sessions.SetStateCookie(w, state)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback.
// It always answers with a redirect, to the success or the failure target.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result := h.identity.Callback(r.Context(), identity.CallbackInput{
		Provider:      mux.Vars(r)["provider"],
		Code:          q.Get("code"),
		State:         q.Get("state"),
		CookieState:   session.StateFromRequest(r),
		ProviderError: q.Get("error"),
	})

	h.sessions.ClearStateCookie(w)
	if result.OK() {
		h.sessions.SetCookie(w, result.Session)
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
