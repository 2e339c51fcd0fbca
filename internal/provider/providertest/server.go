// Package providertest runs a fake OAuth provider for tests.
package providertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mcoot/idgateway/internal/provider"
)

// Values the fake provider accepts and issues
const (
	AccessToken = "fake-access-token"
	BadCode     = "bad-code"
)

// Server is a fake provider exposing token and profile endpoints
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	profileBody   string
	profileStatus int
	lastVerifier  string
	lastCode      string
}

// NewServer starts a fake provider, closed when the test ends
func NewServer(t testing.TB) *Server {
	s := &Server{
		profileBody:   `{}`,
		profileStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/authorize", s.handleAuthorize)
	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/profile", s.handleProfile)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Endpoints returns overrides pointing a provider adapter at this server
func (s *Server) Endpoints() provider.Endpoints {
	return provider.Endpoints{
		AuthURL:    s.URL + "/authorize",
		TokenURL:   s.URL + "/token",
		ProfileURL: s.URL + "/profile",
	}
}

// Options returns adapter options using this server's endpoints
func (s *Server) Options() provider.Options {
	return provider.Options{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://gateway.test/callback",
		Endpoints:    s.Endpoints(),
	}
}

// SetProfile sets the JSON body returned by the profile endpoint
func (s *Server) SetProfile(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileBody = body
}

// SetProfileStatus sets the status returned by the profile endpoint
func (s *Server) SetProfileStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileStatus = status
}

// LastVerifier returns the PKCE verifier sent with the last token request
func (s *Server) LastVerifier() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastVerifier
}

// LastCode returns the authorization code sent with the last token request
func (s *Server) LastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCode
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	// Approve immediately
	q := r.URL.Query()
	target := q.Get("redirect_uri") + "?code=good-code&state=" + q.Get("state")
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.lastCode = r.PostForm.Get("code")
	s.lastVerifier = r.PostForm.Get("code_verifier")
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.PostForm.Get("code") == BadCode {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": AccessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+AccessToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	body, status := s.profileBody, s.profileStatus
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
