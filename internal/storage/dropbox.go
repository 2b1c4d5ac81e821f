package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starford/laguz/internal/apperr"
)

const (
	dropboxAPIURL     = "https://api.dropboxapi.com"
	dropboxContentURL = "https://content.dropboxapi.com"
	dropboxAuthURL    = "https://api.dropbox.com"

	// accessTokenKey is the cache key for the short-lived access token.
	accessTokenKey = "dropbox:access_token"

	defaultMaxRetries = 3
	baseBackoff       = 500 * time.Millisecond
)

// DropboxConfig holds credentials and tuning for the Dropbox-backed store.
type DropboxConfig struct {
	AppKey       string
	AppSecret    string
	RefreshToken string
	// VaultRoot is the Dropbox path of the vault, e.g. "/Apps/Vault".
	VaultRoot string
	// APIURL, ContentURL, and AuthURL override the Dropbox endpoints in tests.
	APIURL     string
	ContentURL string
	AuthURL    string
	MaxRetries int
}

// Dropbox implements Provider against the Dropbox content API. The access
// token is cached in Redis with the TTL Dropbox reports and refreshed via
// the OAuth token endpoint on cache miss.
type Dropbox struct {
	cfg    DropboxConfig
	http   *http.Client
	rdb    *redis.Client
	logger *slog.Logger
}

// NewDropbox creates a Dropbox-backed store.
func NewDropbox(cfg DropboxConfig, rdb *redis.Client, logger *slog.Logger) *Dropbox {
	if cfg.APIURL == "" {
		cfg.APIURL = dropboxAPIURL
	}
	if cfg.ContentURL == "" {
		cfg.ContentURL = dropboxContentURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = dropboxAuthURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &Dropbox{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		rdb:    rdb,
		logger: logger,
	}
}

// token returns a valid access token, refreshing it when the cache is cold.
func (d *Dropbox) token(ctx context.Context) (string, error) {
	tok, err := d.rdb.Get(ctx, accessTokenKey).Result()
	if err == nil && tok != "" {
		return tok, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("storage: token cache: %w", err)
	}
	return d.refreshToken(ctx)
}

func (d *Dropbox) refreshToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {d.cfg.RefreshToken},
		"client_id":     {d.cfg.AppKey},
		"client_secret": {d.cfg.AppSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.cfg.AuthURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("storage: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage: %w: refresh token: %v", apperr.ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage: refresh token: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("storage: decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("storage: refresh token: empty access token")
	}

	ttl := time.Duration(body.ExpiresIn) * time.Second
	if ttl > 2*time.Minute {
		// Expire the cache entry a little early so a cached token is never
		// rejected mid-request.
		ttl -= time.Minute
	}
	if err := d.rdb.Set(ctx, accessTokenKey, body.AccessToken, ttl).Err(); err != nil {
		d.logger.Warn("token cache write failed", slog.String("error", err.Error()))
	}
	return body.AccessToken, nil
}

// absPath maps a vault-relative path to the Dropbox path.
func (d *Dropbox) absPath(rel string) string {
	if rel == "" {
		return d.cfg.VaultRoot
	}
	return d.cfg.VaultRoot + "/" + strings.TrimPrefix(rel, "/")
}

// do sends the request built by build, retrying with exponential backoff on
// rate limiting and server errors. build is invoked per attempt since a
// request body cannot be reused.
func (d *Dropbox) do(ctx context.Context, build func(token string) (*http.Request, error)) (*http.Response, error) {
	var lastStatus int
	for attempt := 0; attempt < d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := baseBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		tok, err := d.token(ctx)
		if err != nil {
			return nil, err
		}
		req, err := build(tok)
		if err != nil {
			return nil, err
		}
		resp, err := d.http.Do(req)
		if err != nil {
			lastStatus = 0
			d.logger.Warn("dropbox request failed",
				slog.Int("attempt", attempt+1), slog.String("error", err.Error()))
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastStatus = resp.StatusCode
			resp.Body.Close()
			d.logger.Warn("dropbox request retried",
				slog.Int("attempt", attempt+1), slog.Int("status", resp.StatusCode))
			continue
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// Cached token went stale; drop it so the next attempt refreshes.
			resp.Body.Close()
			_ = d.rdb.Del(ctx, accessTokenKey).Err()
			lastStatus = resp.StatusCode
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("storage: %w: gave up after %d attempts (last status %d)",
		apperr.ErrTransient, d.cfg.MaxRetries, lastStatus)
}

// Read downloads a document via /2/files/download.
func (d *Dropbox) Read(ctx context.Context, path string) ([]byte, error) {
	arg, _ := json.Marshal(map[string]string{"path": d.absPath(path)})
	resp, err := d.do(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			d.cfg.ContentURL+"/2/files/download", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Dropbox-API-Arg", string(arg))
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, fmt.Errorf("storage: %w: %s", apperr.ErrDocumentNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storage: download %s: unexpected status %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: download %s: %w", path, err)
	}
	return data, nil
}

// Write uploads the full document content via /2/files/upload in overwrite
// mode. Dropbox offers no compare-and-swap on overwrite, so cross-process
// lost updates remain possible; in-process writers are serialized upstream.
func (d *Dropbox) Write(ctx context.Context, path string, content []byte) error {
	arg, _ := json.Marshal(map[string]any{
		"path": d.absPath(path),
		"mode": "overwrite",
		"mute": true,
	})
	resp, err := d.do(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			d.cfg.ContentURL+"/2/files/upload", bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Dropbox-API-Arg", string(arg))
		req.Header.Set("Content-Type", "application/octet-stream")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("storage: upload %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

// List enumerates a folder via /2/files/list_folder, following cursors.
func (d *Dropbox) List(ctx context.Context, folder string) ([]EntryInfo, error) {
	type listEntry struct {
		Tag  string `json:".tag"`
		Name string `json:"name"`
	}
	type listResult struct {
		Entries []listEntry `json:"entries"`
		Cursor  string      `json:"cursor"`
		HasMore bool        `json:"has_more"`
	}

	var out []EntryInfo
	endpoint := d.cfg.APIURL + "/2/files/list_folder"
	payload, _ := json.Marshal(map[string]string{"path": d.absPath(folder)})

	for {
		resp, err := d.do(ctx, func(token string) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")
			return req, nil
		})
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusConflict {
			resp.Body.Close()
			return nil, fmt.Errorf("storage: %w: %s", apperr.ErrFolderNotFound, folder)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("storage: list %s: unexpected status %d", folder, resp.StatusCode)
		}

		var res listResult
		err = json.NewDecoder(resp.Body).Decode(&res)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("storage: decode list response: %w", err)
		}
		for _, e := range res.Entries {
			out = append(out, EntryInfo{Name: e.Name, IsFolder: e.Tag == "folder"})
		}
		if !res.HasMore {
			return out, nil
		}
		endpoint = d.cfg.APIURL + "/2/files/list_folder/continue"
		payload, _ = json.Marshal(map[string]string{"cursor": res.Cursor})
	}
}
