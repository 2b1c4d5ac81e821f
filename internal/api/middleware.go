// Package api implements the Laguz webhook endpoints using chi.
package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
)

// maxWebhookBody bounds inbound payload size.
const maxWebhookBody = 1 << 20

// readBody consumes and restores the request body so handlers can decode it
// after a signature check.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return nil, false
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, true
}

// TodoistSignature returns middleware validating the X-Todoist-Hmac-SHA256
// header: base64 of the HMAC-SHA256 of the raw body with the client secret.
// An empty secret disables the check.
func TodoistSignature(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			sig := r.Header.Get("X-Todoist-Hmac-SHA256")
			if sig == "" {
				slog.Warn("missing todoist signature header")
				writeJSON(w, http.StatusUnauthorized, errorBody("missing signature"))
				return
			}
			body, ok := readBody(w, r)
			if !ok {
				return
			}
			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
			if !hmac.Equal([]byte(expected), []byte(sig)) {
				slog.Warn("invalid todoist signature")
				writeJSON(w, http.StatusUnauthorized, errorBody("invalid signature"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TelegramSecret returns middleware validating the
// X-Telegram-Bot-Api-Secret-Token header against the configured secret.
func TelegramSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
			if !hmac.Equal([]byte(got), []byte(secret)) {
				slog.Warn("invalid telegram secret token")
				writeJSON(w, http.StatusUnauthorized, errorBody("invalid secret token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LinearSignature returns middleware validating the Linear-Signature header:
// hex of the HMAC-SHA256 of the raw body with the webhook secret.
func LinearSignature(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			sig := r.Header.Get("Linear-Signature")
			body, ok := readBody(w, r)
			if !ok {
				return
			}
			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := hex.EncodeToString(mac.Sum(nil))
			if !hmac.Equal([]byte(expected), []byte(sig)) {
				slog.Warn("invalid linear signature")
				writeJSON(w, http.StatusUnauthorized, errorBody("invalid signature"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GithubSignature returns middleware validating the X-Hub-Signature-256
// header: "sha256=" plus hex of the HMAC-SHA256 of the raw body.
func GithubSignature(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			sig := r.Header.Get("X-Hub-Signature-256")
			body, ok := readBody(w, r)
			if !ok {
				return
			}
			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
			if !hmac.Equal([]byte(expected), []byte(sig)) {
				slog.Warn("invalid github signature")
				writeJSON(w, http.StatusUnauthorized, errorBody("invalid signature"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
