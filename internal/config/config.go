// Package config declares every option the exporter understands and resolves
// them once per run from flags, environment variables and schema defaults.
package config

import (
	"log/slog"
	"path/filepath"
	"time"
)

// Config is the merged, validated view of all options for one run.
// Built once by Resolve and never mutated afterwards.
type Config struct {
	LogLevel string

	ShouldDownloadDependencies bool
	ForceDownloadDependencies  bool

	ShouldDownloadSteamGame bool
	ForceSteamDownload      bool
	ManifestID              string
	SteamUsername           string
	SteamPassword           string
	SteamGameDownloadPath   string

	ShouldGetMapper  bool
	ForceGetMapper   bool
	Dumper7OutputDir string
	OutputMapperFile string

	ShouldBatchExport bool
	ForceExport       bool
	OutputDataDir     string

	WorkDir       string
	LedgerPath    string
	DLLPath       string
	InjectTimeout time.Duration
	PollInterval  time.Duration

	masked map[string]string
}

// Masked returns a display-safe view of the resolved options, keyed by
// option key, with sensitive values replaced. Callers must never log the
// raw sensitive fields directly.
func (c *Config) Masked() map[string]string {
	out := make(map[string]string, len(c.masked))
	for k, v := range c.masked {
		out[k] = v
	}
	return out
}

// SlogLevel maps the configured level onto slog's four levels. WARNING maps
// to Warn and CRITICAL to Error.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARNING":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// ToolsDir is where stage collaborators get installed.
func (c *Config) ToolsDir() string { return filepath.Join(c.WorkDir, "tools") }

// DepotDownloaderDir returns the DepotDownloader install directory.
func (c *Config) DepotDownloaderDir() string {
	return filepath.Join(c.ToolsDir(), "DepotDownloader")
}

// BatchExportDir returns the BatchExport install directory.
func (c *Config) BatchExportDir() string {
	return filepath.Join(c.ToolsDir(), "BatchExport")
}

// FSMDBPath is the boltdb file backing the injection monitor's state machine.
func (c *Config) FSMDBPath() string { return filepath.Join(c.WorkDir, "fsm.db") }
