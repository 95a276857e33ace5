package security

import (
	"encoding/gob"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const sessionName = "cloudstash_session"

// Flash is a one-shot message carried in the session until the next page
// render. Level is one of "success", "error", "warning".
type Flash struct {
	Level   string
	Message string
}

func init() {
	gob.Register(Flash{})
}

// SessionManager wraps the signed-cookie session store. All session state
// lives in the cookie itself; nothing is kept server-side.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager builds a cookie session store signed with secret.
// lifetime bounds the cookie age, and secure controls the transport flag,
// which production turns on.
func NewSessionManager(secret []byte, lifetime time.Duration, secure bool) *SessionManager {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(lifetime / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: cs}
}

// session returns the request's session, a fresh one if the cookie is absent
// or fails signature checks. Repeated calls within one request hit the
// gorilla registry cache and return the same session object.
func (m *SessionManager) session(r *http.Request) *sessions.Session {
	s, _ := m.store.Get(r, sessionName)
	return s
}

// SignIn records username in the session.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, username string) error {
	s := m.session(r)
	s.Values["username"] = username
	s.Values["login_time"] = time.Now().Format(time.RFC3339)
	return s.Save(r, w)
}

// SignOut clears the session values. The cookie itself stays so that a
// farewell flash queued right after still reaches the next page.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	for k := range s.Values {
		delete(s.Values, k)
	}
	return s.Save(r, w)
}

// Username returns the authenticated user for the request, if any.
func (m *SessionManager) Username(r *http.Request) (string, bool) {
	s := m.session(r)
	v, ok := s.Values["username"].(string)
	return v, ok && v != ""
}

// Flash queues a one-shot message for the next rendered page. A cookie too
// large to encode loses the flash, nothing worse.
func (m *SessionManager) Flash(w http.ResponseWriter, r *http.Request, level, message string) {
	s := m.session(r)
	s.AddFlash(Flash{Level: level, Message: message})
	_ = s.Save(r, w)
}

// Flashes drains the queued messages and persists the drained state.
func (m *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	s := m.session(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	_ = s.Save(r, w)
	return out
}
