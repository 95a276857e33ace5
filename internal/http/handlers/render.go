// Package handlers implements the HTML-facing request handlers. Every page
// is a server-rendered template; form posts answer with a flash message and
// a redirect.
package handlers

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"cloudstash/internal/http/middleware"
	"cloudstash/internal/security"
)

// page is the envelope every template receives.
type page struct {
	Username string
	Flashes  []security.Flash
	Data     any
}

// Renderer executes templates with the session's flash queue attached, and
// carries the helpers the handler groups share.
type Renderer struct {
	templates *template.Template
	sessions  *security.SessionManager
	log       zerolog.Logger
}

func NewRenderer(templates *template.Template, sessions *security.SessionManager, log zerolog.Logger) *Renderer {
	return &Renderer{templates: templates, sessions: sessions, log: log}
}

func (rd *Renderer) render(w http.ResponseWriter, r *http.Request, name, username string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	p := page{Username: username, Flashes: rd.sessions.Flashes(w, r), Data: data}
	if err := rd.templates.ExecuteTemplate(w, name, p); err != nil {
		rd.log.Error().Err(err).
			Str("request_id", middleware.RequestID(r.Context())).
			Str("template", name).
			Msg("render failed")
	}
}

// redirect queues a flash and sends the browser to another page.
func (rd *Renderer) redirect(w http.ResponseWriter, r *http.Request, level, message, to string) {
	rd.sessions.Flash(w, r, level, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// failure logs the underlying error and gives the user a generic message;
// internal paths and causes stay out of responses. The request id ties the
// flash the user saw back to the logged cause.
func (rd *Renderer) failure(w http.ResponseWriter, r *http.Request, err error, to string) {
	rd.log.Error().Err(err).
		Str("request_id", middleware.RequestID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	rd.redirect(w, r, "error", "Something went wrong. Please try again.", to)
}
