package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cloudstash/internal/security"
)

func TestLoggingAttachesRequestID(t *testing.T) {
	var first string
	h := Logging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = RequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/storage", nil))
	if first == "" {
		t.Fatal("handler saw no request id")
	}

	var second string
	h2 := Logging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second = RequestID(r.Context())
	}))
	h2.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/storage", nil))
	if second == first {
		t.Error("two requests share a request id")
	}
}

func TestRequestIDOutsideRequest(t *testing.T) {
	if id := RequestID(context.Background()); id != "" {
		t.Errorf("RequestID on a bare context = %q", id)
	}
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	sessions := security.NewSessionManager([]byte("test-secret"), time.Hour, false)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("anonymous request reached the protected handler")
	})

	w := httptest.NewRecorder()
	RequireAuth(sessions)(next).ServeHTTP(w, httptest.NewRequest("GET", "/storage", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Errorf("got %d to %q, want 303 to /login", w.Code, w.Header().Get("Location"))
	}
}

func TestRequireAuthInjectsUsername(t *testing.T) {
	sessions := security.NewSessionManager([]byte("test-secret"), time.Hour, false)

	signin := httptest.NewRecorder()
	if err := sessions.SignIn(signin, httptest.NewRequest("POST", "/login", nil), "alice"); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest("GET", "/storage", nil)
	for _, c := range signin.Result().Cookies() {
		r.AddCookie(c)
	}

	var got string
	var ok bool
	RequireAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = Username(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), r)
	if !ok || got != "alice" {
		t.Errorf("Username = %q, %v; want alice, true", got, ok)
	}
}
