package session

import (
	"net/http"

	"github.com/mcoot/idgateway/internal/model"
)

// Cookie names
const (
	CookieName      = "session"
	StateCookieName = "oauth_state"
)

// SetCookie writes the session cookie
func (s *Service) SetCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(session.ID),
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie
func (s *Service) ClearCookie(w http.ResponseWriter) {
	s.clear(w, CookieName, "/")
}

// SessionIDFromRequest returns the session ID carried by the request cookie
func SessionIDFromRequest(r *http.Request) (model.SessionID, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return model.SessionID(cookie.Value), true
}

// SetStateCookie binds an OAuth state value to the browser starting the flow
func (s *Service) SetStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(s.cfg.PendingAuthTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearStateCookie expires the OAuth state cookie
func (s *Service) ClearStateCookie(w http.ResponseWriter) {
	s.clear(w, StateCookieName, "/auth")
}

// StateFromRequest returns the OAuth state bound to the browser, or ""
func StateFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(StateCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Service) clear(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
