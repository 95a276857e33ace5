package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"cloudstash/internal/config"
	"cloudstash/internal/http/middleware"
	"cloudstash/internal/security"
	"cloudstash/internal/storage"
	"cloudstash/internal/store"
)

// Usernames double as storage directory names, so the character set is
// locked down at registration.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type AuthHandler struct {
	cfg      *config.Config
	records  *store.Store
	blobs    *storage.Paths
	sessions *security.SessionManager
	rd       *Renderer
}

func NewAuthHandler(cfg *config.Config, records *store.Store, blobs *storage.Paths, sessions *security.SessionManager, rd *Renderer) *AuthHandler {
	return &AuthHandler{cfg: cfg, records: records, blobs: blobs, sessions: sessions, rd: rd}
}

// Index routes the bare domain: storage page when signed in, login page
// otherwise.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Username(r); ok {
		http.Redirect(w, r, "/storage", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Register serves the signup form and creates accounts.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.rd.render(w, r, "register.html", "", nil)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	if msg := validateRegistration(username, email, password, confirm); msg != "" {
		h.formError(w, r, "register.html", msg)
		return
	}

	salt, hash, err := security.HashPassword(password)
	if err != nil {
		h.rd.log.Error().Err(err).Msg("hash password")
		h.formError(w, r, "register.html", "Registration failed. Please try again.")
		return
	}

	err = h.records.CreateUser(username, email, salt, hash, h.cfg.StorageLimitBytes())
	switch {
	case errors.Is(err, store.ErrDuplicateUser):
		h.formError(w, r, "register.html", "Username already exists.")
		return
	case errors.Is(err, store.ErrUserCapacity):
		h.formError(w, r, "register.html", "Maximum number of users reached.")
		return
	case err != nil:
		h.rd.log.Error().Err(err).Str("user", username).Msg("create user")
		h.formError(w, r, "register.html", "Registration failed. Please try again.")
		return
	}

	if _, err := h.blobs.UserDir(username); err != nil {
		h.rd.log.Error().Err(err).Str("user", username).Msg("create storage directory")
	}

	h.rd.redirect(w, r, "success",
		fmt.Sprintf("Registration successful! You have %s of storage. Please log in.",
			humanize.IBytes(uint64(h.cfg.StorageLimitBytes()))),
		"/login")
}

func validateRegistration(username, email, password, confirm string) string {
	switch {
	case username == "" || email == "" || password == "":
		return "All fields are required."
	case len(username) < 3:
		return "Username must be at least 3 characters."
	case !usernamePattern.MatchString(username):
		return "Username may only contain letters, digits, '-' and '_'."
	case !strings.Contains(email, "@"):
		return "Please enter a valid email address."
	case len(password) < 8:
		return "Password must be at least 8 characters."
	case password != confirm:
		return "Passwords do not match."
	}
	return ""
}

// Login authenticates a session. An unknown username and a wrong password
// produce the same message.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Username(r); ok {
		http.Redirect(w, r, "/storage", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		h.rd.render(w, r, "login.html", "", nil)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.formError(w, r, "login.html", "Please enter both username and password.")
		return
	}

	user, ok := h.records.GetUser(username)
	if !ok || !security.VerifyPassword(user.Salt, user.PasswordHash, password) {
		h.formError(w, r, "login.html", "Invalid username or password.")
		return
	}

	if err := h.sessions.SignIn(w, r, username); err != nil {
		h.rd.log.Error().Err(err).Msg("establish session")
		h.formError(w, r, "login.html", "Login failed. Please try again.")
		return
	}
	h.records.UpdateUserActivity(username)
	h.rd.redirect(w, r, "success", "Welcome back, "+username+"!", "/storage")
}

// Logout drops the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	if err := h.sessions.SignOut(w, r); err != nil {
		h.rd.log.Error().Err(err).Msg("clear session")
	}
	h.rd.redirect(w, r, "success", "Goodbye, "+username+"!", "/login")
}

// formError re-renders a form page with an error flash.
func (h *AuthHandler) formError(w http.ResponseWriter, r *http.Request, tpl, message string) {
	h.sessions.Flash(w, r, "error", message)
	h.rd.render(w, r, tpl, "", nil)
}
