package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	salt, hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	if salt == "" || hash == "" {
		t.Fatal("empty salt or hash")
	}
	if !VerifyPassword(salt, hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(salt, hash, "correct horse battery stapl") {
		t.Error("wrong password accepted")
	}
	if VerifyPassword(salt, hash, "") {
		t.Error("empty password accepted")
	}
}

func TestPasswordSaltsDiffer(t *testing.T) {
	salt1, hash1, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}
	salt2, hash2, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if salt1 == salt2 {
		t.Error("two hashes of the same password share a salt")
	}
	if hash1 == hash2 {
		t.Error("two hashes of the same password are identical")
	}
	if !VerifyPassword(salt2, hash2, "hunter22") {
		t.Error("second hash does not verify")
	}
}

func TestVerifyPasswordMalformedStored(t *testing.T) {
	if VerifyPassword("not-hex!", "abcdef", "pw") {
		t.Error("malformed salt verified")
	}
	if VerifyPassword("abcdef", "not-hex!", "pw") {
		t.Error("malformed hash verified")
	}
	if VerifyPassword("", "", "pw") {
		t.Error("empty stored values verified")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"), time.Hour, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/login", nil)
	if err := m.SignIn(w, r, "alice"); err != nil {
		t.Fatal(err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn wrote no cookie")
	}

	r2 := httptest.NewRequest("GET", "/storage", nil)
	for _, c := range cookies {
		r2.AddCookie(c)
	}
	username, ok := m.Username(r2)
	if !ok || username != "alice" {
		t.Fatalf("Username = %q, %v; want alice, true", username, ok)
	}
}

func TestSessionSignOut(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"), time.Hour, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/login", nil)
	if err := m.SignIn(w, r, "alice"); err != nil {
		t.Fatal(err)
	}

	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("GET", "/logout", nil)
	for _, c := range w.Result().Cookies() {
		r2.AddCookie(c)
	}
	if err := m.SignOut(w2, r2); err != nil {
		t.Fatal(err)
	}

	r3 := httptest.NewRequest("GET", "/storage", nil)
	for _, c := range w2.Result().Cookies() {
		r3.AddCookie(c)
	}
	if _, ok := m.Username(r3); ok {
		t.Error("session still authenticated after sign-out")
	}
}

func TestFlashDrain(t *testing.T) {
	m := NewSessionManager([]byte("test-secret"), time.Hour, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	m.Flash(w, r, "success", "it worked")
	m.Flash(w, r, "error", "it also failed")

	flashes := m.Flashes(w, r)
	if len(flashes) != 2 {
		t.Fatalf("got %d flashes, want 2", len(flashes))
	}
	if flashes[0].Level != "success" || flashes[0].Message != "it worked" {
		t.Errorf("first flash = %+v", flashes[0])
	}
	if flashes[1].Level != "error" {
		t.Errorf("second flash = %+v", flashes[1])
	}

	if again := m.Flashes(w, r); len(again) != 0 {
		t.Errorf("flashes not one-shot, second drain returned %d", len(again))
	}
}

func TestForgedCookieRejected(t *testing.T) {
	m1 := NewSessionManager([]byte("secret-one"), time.Hour, false)
	m2 := NewSessionManager([]byte("secret-two"), time.Hour, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/login", nil)
	if err := m1.SignIn(w, r, "alice"); err != nil {
		t.Fatal(err)
	}

	r2 := httptest.NewRequest("GET", "/storage", nil)
	for _, c := range w.Result().Cookies() {
		r2.AddCookie(c)
	}
	if _, ok := m2.Username(r2); ok {
		t.Error("cookie signed under a different key was accepted")
	}
}
