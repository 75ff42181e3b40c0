package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultChunkDuration is used whenever the configured chunk duration cannot be parsed.
const DefaultChunkDuration = 20 * time.Second

// AuthKeyEnv overrides AUTH_KEY when set.
const AuthKeyEnv = "SALUTE_AUTH_KEY"

// Config holds configurable parameters.
type Config struct {
	AuthKey        string  `json:"AUTH_KEY" yaml:"AUTH_KEY"`
	AuthEndpoint   string  `json:"AUTH_ENDPOINT" yaml:"AUTH_ENDPOINT"`
	Scope          string  `json:"SCOPE" yaml:"SCOPE"`
	APIEndpoint    string  `json:"API_ENDPOINT" yaml:"API_ENDPOINT"`
	TEXTPath       string  `json:"TEXT_PATH" yaml:"TEXT_PATH"`
	ChunkDuration  string  `json:"CHUNK_DURATION" yaml:"CHUNK_DURATION"`
	Device         string  `json:"DEVICE" yaml:"DEVICE"`
	OutputDir      string  `json:"OUTPUT_DIR" yaml:"OUTPUT_DIR"`
	PDFDir         string  `json:"PDF_DIR" yaml:"PDF_DIR"`
	PDFPrefix      string  `json:"PDF_PREFIX" yaml:"PDF_PREFIX"`
	FontPath       string  `json:"FONT_PATH" yaml:"FONT_PATH"`
	FontSize       float64 `json:"FONT_SIZE" yaml:"FONT_SIZE"`
	PageMargin     float64 `json:"PAGE_MARGIN" yaml:"PAGE_MARGIN"`
	LineHeight     float64 `json:"LINE_HEIGHT" yaml:"LINE_HEIGHT"`
	QueueSize      int     `json:"QUEUE_SIZE" yaml:"QUEUE_SIZE"`
	RequestTimeout int     `json:"REQUEST_TIMEOUT" yaml:"REQUEST_TIMEOUT"`
	EnableHTTP2    bool    `json:"ENABLE_HTTP2" yaml:"ENABLE_HTTP2"`
	VerifySSL      bool    `json:"VERIFY_SSL" yaml:"VERIFY_SSL"`
	Notification   bool    `json:"NOTIFICATION" yaml:"NOTIFICATION"`
	LogFile        string  `json:"LOG_FILE" yaml:"LOG_FILE"`
	Debug          bool    `json:"DEBUG" yaml:"DEBUG"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AuthKey:        "",
		AuthEndpoint:   "https://ngw.devices.sberbank.ru:9443/api/v2/oauth",
		Scope:          "SALUTE_SPEECH_PERS",
		APIEndpoint:    "https://smartspeech.sber.ru/rest/v1/speech:recognize",
		TEXTPath:       "result[0]",
		ChunkDuration:  "20",
		Device:         "",
		OutputDir:      "recordings",
		PDFDir:         ".",
		PDFPrefix:      "Выступление",
		FontPath:       "DejaVuSans.ttf",
		FontSize:       12,
		PageMargin:     40,
		LineHeight:     15,
		QueueSize:      1024,
		RequestTimeout: 0,
		EnableHTTP2:    true,
		VerifySSL:      true,
		Notification:   false,
		LogFile:        "speechpdf.log",
		Debug:          false,
	}
}

// Load loads config from a JSON or YAML file if provided. The format is picked
// from the file extension; anything other than .yaml/.yml is read as JSON.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if isYAML(path) {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveDefault writes a default config to the provided path.
func SaveDefault(path string) error {
	cfg := DefaultConfig()
	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(cfg)
	} else {
		b, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ApplyEnv applies environment overrides.
func ApplyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(AuthKeyEnv); ok && v != "" {
		cfg.AuthKey = v
	}
}

// Validate verifies config fields and returns an error if any value is invalid.
func Validate(cfg *Config) error {
	if cfg.APIEndpoint == "" {
		return fmt.Errorf("invalid API_ENDPOINT: must not be empty")
	}
	if cfg.AuthEndpoint == "" {
		return fmt.Errorf("invalid AUTH_ENDPOINT: must not be empty")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("invalid OUTPUT_DIR: must not be empty")
	}
	if cfg.PDFPrefix == "" || strings.ContainsAny(cfg.PDFPrefix, `/\`) {
		return fmt.Errorf("invalid PDF_PREFIX: %q", cfg.PDFPrefix)
	}
	if cfg.FontSize <= 0 {
		return fmt.Errorf("invalid FONT_SIZE: %v (must be > 0)", cfg.FontSize)
	}
	if cfg.PageMargin < 0 {
		return fmt.Errorf("invalid PAGE_MARGIN: %v (must be >= 0)", cfg.PageMargin)
	}
	if cfg.LineHeight <= 0 {
		return fmt.Errorf("invalid LINE_HEIGHT: %v (must be > 0)", cfg.LineHeight)
	}
	if cfg.QueueSize < 1 {
		return fmt.Errorf("invalid QUEUE_SIZE: %d (must be >= 1)", cfg.QueueSize)
	}
	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT: %d (must be >= 0)", cfg.RequestTimeout)
	}
	return nil
}

// MaxChunkDuration bounds a single capture so its sample buffer stays small.
const MaxChunkDuration = time.Hour

// ParseChunkDuration converts the user-entered chunk length in seconds.
// Unparsable, non-finite, non-positive or longer than MaxChunkDuration input
// yields DefaultChunkDuration.
func ParseChunkDuration(s string) time.Duration {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v > MaxChunkDuration.Seconds() {
		return DefaultChunkDuration
	}
	return time.Duration(v * float64(time.Second))
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
