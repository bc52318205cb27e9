// Package deps installs the external tools the pipeline invokes, fetching
// their latest GitHub releases and tracking installed versions on disk.
package deps

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/surxe/wrfexporter/pkg/errors"
)

// Extraction limits for release archives.
const (
	maxAssetFileSize    = 2 * 1024 * 1024 * 1024
	maxAssetTotalSize   = 20 * 1024 * 1024 * 1024
	maxCompressionRatio = 100.0
	versionFileName     = "version.txt"
	downloadTimeout     = 30 * time.Minute
)

// ToolSpec describes one GitHub-released tool the pipeline depends on.
type ToolSpec struct {
	Owner         string
	Repo          string
	AssetPatterns []string
	Executable    string
	InstallDir    string
}

// DepotDownloaderSpec is the Steam content download client.
func DepotDownloaderSpec(installDir string) ToolSpec {
	return ToolSpec{
		Owner:         "SteamRE",
		Repo:          "DepotDownloader",
		AssetPatterns: []string{"windows-x64.zip"},
		Executable:    "DepotDownloader.exe",
		InstallDir:    installDir,
	}
}

// BatchExportSpec is the asset-to-JSON converter.
func BatchExportSpec(installDir string) ToolSpec {
	return ToolSpec{
		Owner:         "Surxe",
		Repo:          "batch_export",
		AssetPatterns: []string{"BatchExport-windows-x64.zip", "README.md"},
		Executable:    "BatchExport.exe",
		InstallDir:    installDir,
	}
}

// Manager downloads and installs tool releases.
type Manager struct {
	client    *Client
	validator *Validator
	tempDir   string
}

// NewManager creates a dependency manager using workDir for temp downloads.
func NewManager(workDir string) *Manager {
	return &Manager{
		client:    NewClient(downloadTimeout),
		validator: NewValidator(maxAssetFileSize, maxAssetTotalSize, maxCompressionRatio),
		tempDir:   filepath.Join(workDir, ".tmp"),
	}
}

// InstalledVersion reads the version marker from an install dir. A missing
// or unreadable marker reads as empty.
func InstalledVersion(installDir string) string {
	data, err := os.ReadFile(filepath.Join(installDir, versionFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeVersionFile(installDir, version string) error {
	return os.WriteFile(filepath.Join(installDir, versionFileName), []byte(version), 0644)
}

// Installed reports whether a tool looks installed: executable present and
// version marker present. Used by the step gate's presence check.
func Installed(spec ToolSpec) bool {
	if _, err := os.Stat(filepath.Join(spec.InstallDir, spec.Executable)); err != nil {
		return false
	}
	return InstalledVersion(spec.InstallDir) != ""
}

// Install fetches the latest release of a tool and installs it, returning
// the installed version tag. Equal installed version short-circuits unless
// force is set.
func (m *Manager) Install(ctx context.Context, spec ToolSpec, force bool) (string, error) {
	release, err := m.client.LatestRelease(ctx, spec.Owner, spec.Repo)
	if err != nil {
		return "", errors.WrapKind(err, errors.ToolInvocationError,
			"failed to look up "+spec.Repo+" release")
	}

	if !force {
		if current := InstalledVersion(spec.InstallDir); current == release.TagName {
			slog.Info("dependency_up_to_date", "tool", spec.Repo, "version", current)
			return current, nil
		}
	}

	if err := os.MkdirAll(spec.InstallDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create install dir")
	}
	if err := os.MkdirAll(m.tempDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create temp dir")
	}

	for _, pattern := range spec.AssetPatterns {
		asset, ok := release.FindAsset(pattern)
		if !ok {
			slog.Warn("dependency_asset_missing", "tool", spec.Repo, "pattern", pattern)
			continue
		}
		if err := m.installAsset(ctx, spec, asset); err != nil {
			return "", err
		}
	}

	if err := VerifyExecutable(spec.InstallDir, spec.Executable); err != nil {
		return "", errors.WrapKind(err, errors.ToolInvocationError, spec.Repo+" install")
	}
	if err := writeVersionFile(spec.InstallDir, release.TagName); err != nil {
		return "", errors.Wrap(err, "failed to write version marker")
	}

	slog.Info("dependency_installed", "tool", spec.Repo, "version", release.TagName)
	return release.TagName, nil
}

func (m *Manager) installAsset(ctx context.Context, spec ToolSpec, asset Asset) error {
	// Plain assets (README and friends) land next to the executable.
	if !strings.HasSuffix(strings.ToLower(asset.Name), ".zip") {
		_, err := m.client.Download(ctx, asset.BrowserDownloadURL,
			filepath.Join(spec.InstallDir, asset.Name))
		return err
	}

	zipPath := filepath.Join(m.tempDir, asset.Name)
	if _, err := m.client.Download(ctx, asset.BrowserDownloadURL, zipPath); err != nil {
		return err
	}
	defer os.Remove(zipPath)

	if err := ValidateZip(zipPath); err != nil {
		return errors.Wrap(err, asset.Name)
	}
	return ExtractZip(zipPath, spec.InstallDir, m.validator)
}

// Cleanup removes the temp download directory.
func (m *Manager) Cleanup() {
	if err := os.RemoveAll(m.tempDir); err != nil {
		slog.Warn("dependency_temp_cleanup_failed", "error", err)
	}
}
