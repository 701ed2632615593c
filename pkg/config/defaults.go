package config

import (
	"time"

	"github.com/marmos91/quark/internal/bytesize"
	"github.com/marmos91/quark/pkg/adapter/httpd"
)

// ApplyDefaults fills in zero values with sensible defaults so a partial
// config file still yields a runnable server.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)

	if cfg.AccessLog.Output == "" {
		cfg.AccessLog.Output = "stdout"
	}

	applyListenDefaults(&cfg.Listen)
	applyMetricsDefaults(&cfg.Metrics)

	if cfg.ServeDir == "" {
		cfg.ServeDir = "/var/www/htdocs"
	}
	if cfg.DocIndex == "" {
		cfg.DocIndex = "index.html"
	}
	if len(cfg.Mimes) == 0 {
		cfg.Mimes = DefaultMimes()
	}

	applyLimitsDefaults(&cfg.Limits)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyListenDefaults(cfg *ListenConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 512
	}
	if cfg.IOTimeout == 0 {
		cfg.IOTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.BindAddress == "" {
		cfg.BindAddress = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyLimitsDefaults(cfg *LimitsConfig) {
	if cfg.HeaderMax == 0 {
		cfg.HeaderMax = 4 * bytesize.KiB
	}
	if cfg.FieldMax == 0 {
		cfg.FieldMax = 200 * bytesize.B
	}
	if cfg.PathMax == 0 {
		cfg.PathMax = 4 * bytesize.KiB
	}
	if cfg.CopyBuffer == 0 {
		cfg.CopyBuffer = 32 * bytesize.KiB
	}
}

// DefaultMimes is the built-in extension→type table. Order matters: the
// first match wins.
func DefaultMimes() []httpd.MimeMapping {
	return []httpd.MimeMapping{
		{Ext: "xml", Type: "application/xml"},
		{Ext: "xhtml", Type: "application/xhtml+xml"},
		{Ext: "html", Type: "text/html; charset=utf-8"},
		{Ext: "htm", Type: "text/html; charset=utf-8"},
		{Ext: "css", Type: "text/css"},
		{Ext: "txt", Type: "text/plain"},
		{Ext: "md", Type: "text/plain"},
		{Ext: "c", Type: "text/plain"},
		{Ext: "h", Type: "text/plain"},
		{Ext: "gz", Type: "application/x-gtar"},
		{Ext: "tar", Type: "application/tar"},
		{Ext: "pdf", Type: "application/x-pdf"},
		{Ext: "png", Type: "image/png"},
		{Ext: "gif", Type: "image/gif"},
		{Ext: "jpeg", Type: "image/jpg"},
		{Ext: "jpg", Type: "image/jpg"},
		{Ext: "iso", Type: "application/x-iso9660-image"},
		{Ext: "webp", Type: "image/webp"},
		{Ext: "svg", Type: "image/svg+xml"},
		{Ext: "flac", Type: "audio/flac"},
		{Ext: "mp3", Type: "audio/mpeg"},
		{Ext: "ogg", Type: "audio/ogg"},
		{Ext: "mp4", Type: "video/mp4"},
		{Ext: "ogv", Type: "video/ogg"},
		{Ext: "webm", Type: "video/webm"},
	}
}

// GetDefaultConfig returns the configuration used when no config file is
// present.
func GetDefaultConfig() *Config {
	cfg := &Config{ListDirs: false}
	ApplyDefaults(cfg)
	return cfg
}
