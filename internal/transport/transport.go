// Package transport builds the shared HTTP client and formats response bodies
// for diagnostics.
package transport

import (
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/net/http2"

	"speechpdf/internal/config"
)

// UserAgent is sent with every request.
const UserAgent = "speechpdf/1.0"

// NewClient returns the HTTP client used for the auth and recognizer calls.
// A zero REQUEST_TIMEOUT leaves the client without a timeout.
func NewClient(cfg config.Config) *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !cfg.VerifySSL {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.EnableHTTP2 {
		_ = http2.ConfigureTransport(tr)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

// Summarize renders a response body for log and error messages. Long text is
// truncated and binary payloads are shown as a hex prefix.
func Summarize(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	const maxText = 1000
	const maxBin = 256

	if utf8.Valid(b) {
		if len(b) > maxText {
			cut := maxText
			for cut > 0 && !utf8.RuneStart(b[cut]) {
				cut--
			}
			return fmt.Sprintf("%s... (truncated, total %d bytes)", b[:cut], len(b))
		}
		return string(b)
	}

	if len(b) > maxBin {
		return fmt.Sprintf("<binary %d bytes, prefix hex: %s...>", len(b), hex.EncodeToString(b[:maxBin]))
	}
	return fmt.Sprintf("<binary %d bytes, hex: %s>", len(b), hex.EncodeToString(b))
}
