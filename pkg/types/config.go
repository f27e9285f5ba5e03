// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// APIConfig holds settings for talking to the question-answering collaborator.
type APIConfig struct {
	// BaseURL is the collaborator root (e.g. "http://localhost:8000").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mm-archive/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// ListTimeout bounds the paper listing request. The ask request has no
	// timeout.
	ListTimeout time.Duration `json:"list_timeout" yaml:"list_timeout" mapstructure:"list_timeout"`
}

// StoreBackend selects where the last session is persisted.
type StoreBackend string

const (
	StoreSQLite StoreBackend = "sqlite"
	StoreMemory StoreBackend = "memory"
)

// StoreConfig holds settings for the session store.
type StoreConfig struct {
	// Backend is sqlite (durable, default) or memory.
	Backend StoreBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ProgressConfig holds timing for the progress simulation.
type ProgressConfig struct {
	// Interval is the tick period (default 2s).
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// ClearDelay is how long the final state stays visible after stop (default 500ms).
	ClearDelay time.Duration `json:"clear_delay" yaml:"clear_delay" mapstructure:"clear_delay"`
}

// ViewerConfig holds settings for opening and serving source documents.
type ViewerConfig struct {
	// BaseURL is the host serving /pdfs/ (default "http://localhost:8000").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PDFDir is the local corpus directory served by `mm-archive serve`.
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir" mapstructure:"pdf_dir"`

	// Addr is the listen address for `mm-archive serve`.
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// ClientConfig groups all settings for the mm-archive client.
type ClientConfig struct {
	API      APIConfig      `json:"api" yaml:"api" mapstructure:"api"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Progress ProgressConfig `json:"progress" yaml:"progress" mapstructure:"progress"`
	Viewer   ViewerConfig   `json:"viewer" yaml:"viewer" mapstructure:"viewer"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}
