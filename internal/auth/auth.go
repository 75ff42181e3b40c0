// Package auth exchanges the SaluteSpeech authorization key for a bearer
// access token.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"speechpdf/internal/config"
	"speechpdf/internal/transport"
)

// Token is an access token returned by the OAuth endpoint.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// StatusError is returned when the OAuth endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, transport.Summarize(e.Body))
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Client fetches access tokens.
type Client struct {
	endpoint   string
	credential string
	scope      string
	httpClient *http.Client
}

// New creates a token client from cfg.
func New(cfg config.Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   cfg.AuthEndpoint,
		credential: cfg.AuthKey,
		scope:      cfg.Scope,
		httpClient: httpClient,
	}
}

// Fetch performs one token request. Every call carries a fresh RqUID.
func (c *Client) Fetch(ctx context.Context) (Token, error) {
	if c.credential == "" {
		return Token{}, fmt.Errorf("authorization key is empty")
	}
	form := url.Values{"scope": {c.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("new request error: %w", err)
	}
	rqUID := uuid.New().String()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	req.Header.Set("Authorization", "Basic "+c.credential)
	req.Header.Set("User-Agent", transport.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, fmt.Errorf("read response error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Token{}, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("token response has no access_token")
	}
	tok := Token{AccessToken: tr.AccessToken}
	if tr.ExpiresAt > 0 {
		tok.ExpiresAt = time.UnixMilli(tr.ExpiresAt)
	}
	slog.Debug("token acquired", "component", "auth", "rq_uid", rqUID, "expires_at", tok.ExpiresAt)
	return tok, nil
}
