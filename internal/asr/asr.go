package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"speechpdf/internal/config"
	"speechpdf/internal/jsonpath"
	"speechpdf/internal/record"
	"speechpdf/internal/transport"
)

// ContentType describes the PCM payload sent to the recognizer.
const ContentType = "audio/x-pcm;bit=16;rate=16000"

// ErrNoToken is returned when recognition is attempted without an access token.
var ErrNoToken = errors.New("no access token")

// StatusError is returned when the recognizer answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recognizer returned %d: %s", e.StatusCode, transport.Summarize(e.Body))
}

// Client performs single-shot recognition requests.
type Client struct {
	endpoint   string
	textPath   string
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a recognizer client.
func New(cfg config.Config, httpClient *http.Client) (*Client, error) {
	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf("API endpoint is empty")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   cfg.APIEndpoint,
		textPath:   cfg.TEXTPath,
		httpClient: httpClient,
		log:        slog.With("component", "upload"),
	}, nil
}

// Recognize uploads the PCM payload of a chunk WAV and returns the recognized
// text. An empty result list yields "" and a nil error; a body that is not
// JSON is an error. The call is made once.
func (c *Client) Recognize(ctx context.Context, wavPath, token string) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}
	pcm, err := record.ReadPCM(wavPath)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(pcm))
	if err != nil {
		return "", fmt.Errorf("new request error: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("User-Agent", transport.UserAgent)

	c.log.Debug("uploading", "path", wavPath, "bytes", len(pcm), "endpoint", c.endpoint)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response error: %w", err)
	}
	c.log.Debug("response", "status", resp.StatusCode, "duration", time.Since(start), "body", transport.Summarize(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode response error: %w (body: %s)", err, transport.Summarize(body))
	}
	text, ok := jsonpath.Text(root, c.textPath)
	if !ok {
		c.log.Debug("no text at path", "path", c.textPath)
	}
	return text, nil
}
