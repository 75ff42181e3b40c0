package config

import (
	"github.com/spf13/pflag"
)

// FlagValues holds flag targets. A value only overrides the config file when
// the matching flag was set on the command line.
type FlagValues struct {
	fs *pflag.FlagSet

	AuthKey        string
	AuthEndpoint   string
	Scope          string
	APIEndpoint    string
	TEXTPath       string
	ChunkDuration  string
	Device         string
	OutputDir      string
	PDFDir         string
	PDFPrefix      string
	FontPath       string
	FontSize       float64
	RequestTimeout int
	EnableHTTP2    bool
	VerifySSL      bool
	Notification   bool
	LogFile        string
	Debug          bool
}

// BindFlags registers all config override flags on fs.
func BindFlags(fs *pflag.FlagSet) *FlagValues {
	fv := &FlagValues{fs: fs}
	d := DefaultConfig()

	fs.StringVar(&fv.AuthKey, "auth-key", "", "SaluteSpeech authorization key (Basic credential)")
	fs.StringVar(&fv.AuthEndpoint, "auth-endpoint", d.AuthEndpoint, "OAuth token endpoint URL")
	fs.StringVar(&fv.Scope, "scope", d.Scope, "OAuth scope")
	fs.StringVar(&fv.APIEndpoint, "api-endpoint", d.APIEndpoint, "speech recognition endpoint URL")
	fs.StringVar(&fv.TEXTPath, "text-path", d.TEXTPath, "JSON path to extract text from the recognizer response")

	fs.StringVar(&fv.ChunkDuration, "chunk-duration", d.ChunkDuration, "chunk length in seconds")
	fs.StringVar(&fv.Device, "device", d.Device, "capture device name (empty = default input)")
	fs.StringVar(&fv.OutputDir, "output-dir", d.OutputDir, "directory for temporary chunk WAV files")

	fs.StringVar(&fv.PDFDir, "pdf-dir", d.PDFDir, "directory for exported PDF files")
	fs.StringVar(&fv.PDFPrefix, "pdf-prefix", d.PDFPrefix, "exported PDF file name prefix")
	fs.StringVar(&fv.FontPath, "font", d.FontPath, "TTF font used in the PDF (empty = Helvetica)")
	fs.Float64Var(&fv.FontSize, "font-size", d.FontSize, "PDF font size in points")

	fs.IntVar(&fv.RequestTimeout, "request-timeout", d.RequestTimeout, "HTTP timeout seconds (0 = none)")
	fs.BoolVar(&fv.EnableHTTP2, "enable-http2", d.EnableHTTP2, "enable HTTP/2")
	fs.BoolVar(&fv.VerifySSL, "verify-ssl", d.VerifySSL, "verify TLS certificates")

	fs.BoolVar(&fv.Notification, "notification", d.Notification, "enable desktop notifications")
	fs.StringVar(&fv.LogFile, "log-file", d.LogFile, "diagnostic log file used by the TUI")
	fs.BoolVar(&fv.Debug, "debug", d.Debug, "enable debug logging")

	return fv
}

// ApplyFlags applies explicitly set flags to the config.
func ApplyFlags(cfg *Config, fv *FlagValues) {
	set := fv.fs.Changed
	if set("auth-key") {
		cfg.AuthKey = fv.AuthKey
	}
	if set("auth-endpoint") {
		cfg.AuthEndpoint = fv.AuthEndpoint
	}
	if set("scope") {
		cfg.Scope = fv.Scope
	}
	if set("api-endpoint") {
		cfg.APIEndpoint = fv.APIEndpoint
	}
	if set("text-path") {
		cfg.TEXTPath = fv.TEXTPath
	}
	if set("chunk-duration") {
		cfg.ChunkDuration = fv.ChunkDuration
	}
	if set("device") {
		cfg.Device = fv.Device
	}
	if set("output-dir") {
		cfg.OutputDir = fv.OutputDir
	}
	if set("pdf-dir") {
		cfg.PDFDir = fv.PDFDir
	}
	if set("pdf-prefix") {
		cfg.PDFPrefix = fv.PDFPrefix
	}
	if set("font") {
		cfg.FontPath = fv.FontPath
	}
	if set("font-size") {
		cfg.FontSize = fv.FontSize
	}
	if set("request-timeout") {
		cfg.RequestTimeout = fv.RequestTimeout
	}
	if set("enable-http2") {
		cfg.EnableHTTP2 = fv.EnableHTTP2
	}
	if set("verify-ssl") {
		cfg.VerifySSL = fv.VerifySSL
	}
	if set("notification") {
		cfg.Notification = fv.Notification
	}
	if set("log-file") {
		cfg.LogFile = fv.LogFile
	}
	if set("debug") {
		cfg.Debug = fv.Debug
	}
}

// AnySet reports whether any override flag was explicitly set by the user.
func (fv *FlagValues) AnySet() bool {
	found := false
	fv.fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed && f.Name != "config" {
			found = true
		}
	})
	return found
}
