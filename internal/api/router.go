package api

import (
	"github.com/go-chi/chi/v5"
)

// Secrets carries the per-source webhook verification secrets. An empty
// secret disables verification for that source.
type Secrets struct {
	Todoist  string
	Telegram string
	Linear   string
	Github   string
}

// NewRouter creates a chi router with all webhook routes mounted, each
// behind its source's signature check.
func NewRouter(h *Handler, secrets Secrets) chi.Router {
	r := chi.NewRouter()

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	r.Get("/journal/recent", h.Recent)

	r.Group(func(r chi.Router) {
		r.Use(TodoistSignature(secrets.Todoist))
		r.Post("/todoist/webhook", h.TodoistWebhook)
	})
	r.Group(func(r chi.Router) {
		r.Use(TelegramSecret(secrets.Telegram))
		r.Post("/telegram/webhook", h.TelegramWebhook)
	})
	r.Group(func(r chi.Router) {
		r.Use(LinearSignature(secrets.Linear))
		r.Post("/linear/webhook", h.LinearWebhook)
	})
	r.Group(func(r chi.Router) {
		r.Use(GithubSignature(secrets.Github))
		r.Post("/github/webhook", h.GithubWebhook)
	})

	return r
}
