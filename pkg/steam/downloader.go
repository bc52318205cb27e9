// Package steam downloads the game's files through DepotDownloader and
// tracks the installed manifest so unchanged builds are not re-downloaded.
package steam

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/surxe/wrfexporter/pkg/errors"
	"github.com/surxe/wrfexporter/pkg/proc"
)

// War Robots: Frontiers on Steam.
const (
	AppID   = "1491000"
	DepotID = "1491005"

	manifestFileName = "manifest.txt"
	downloadTimeout  = 6 * time.Hour
	probeTimeout     = 10 * time.Minute
)

// Downloader runs DepotDownloader against one game install directory.
type Downloader struct {
	exePath  string
	gameDir  string
	username string
	password string
}

// NewDownloader creates a downloader. exePath is the DepotDownloader
// binary, gameDir is where the depot contents land.
func NewDownloader(exePath, gameDir, username, password string) *Downloader {
	return &Downloader{
		exePath:  exePath,
		gameDir:  gameDir,
		username: username,
		password: password,
	}
}

// InstalledManifest reads the manifest marker left by the last successful
// download. A missing marker reads as empty.
func InstalledManifest(gameDir string) string {
	data, err := os.ReadFile(filepath.Join(gameDir, manifestFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeManifestFile(gameDir, manifestID string) error {
	return os.WriteFile(filepath.Join(gameDir, manifestFileName), []byte(manifestID), 0644)
}

// LatestManifest asks Steam which manifest the depot currently serves,
// without downloading content. DepotDownloader has no query mode, so the
// probe runs a manifest-only download into a scratch dir and reads the id
// off the manifest file it writes.
func (d *Downloader) LatestManifest(ctx context.Context) (string, error) {
	scratch, err := os.MkdirTemp("", "wrfexporter-manifest-")
	if err != nil {
		return "", errors.Wrap(err, "failed to create scratch dir")
	}
	defer os.RemoveAll(scratch)

	args := d.baseArgs(scratch)
	args = append(args, "-manifest-only", "-validate")
	if err := proc.Run(ctx, d.exePath, args, probeTimeout); err != nil {
		return "", errors.WrapKind(err, errors.ToolInvocationError, "manifest probe")
	}

	id, err := manifestIDFromDir(scratch)
	if err != nil {
		return "", err
	}
	slog.Info("steam_latest_manifest", "app_id", AppID, "depot_id", DepotID, "manifest_id", id)
	return id, nil
}

// Download fetches the given manifest of the depot into the game dir and
// records the manifest marker. Callers resolve "latest" to a concrete id
// first (LatestManifest) so the marker always names what was requested.
func (d *Downloader) Download(ctx context.Context, manifestID string) (string, error) {
	if manifestID == "" {
		return "", fmt.Errorf("manifest id must be resolved before downloading")
	}
	if err := os.MkdirAll(d.gameDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create game dir")
	}

	slog.Info("steam_download_starting",
		"app_id", AppID, "depot_id", DepotID, "manifest_id", manifestID, "dir", d.gameDir)
	if err := proc.Run(ctx, d.exePath, d.downloadArgs(manifestID), downloadTimeout); err != nil {
		return "", errors.WrapKind(err, errors.ToolInvocationError, "depot download")
	}

	if err := writeManifestFile(d.gameDir, manifestID); err != nil {
		return "", errors.Wrap(err, "failed to write manifest marker")
	}

	slog.Info("steam_download_complete", "manifest_id", manifestID)
	return manifestID, nil
}

// downloadArgs is the full DepotDownloader argument list for one manifest.
func (d *Downloader) downloadArgs(manifestID string) []string {
	args := d.baseArgs(d.gameDir)
	return append(args, "-manifest", manifestID, "-validate")
}

func (d *Downloader) baseArgs(dir string) []string {
	return []string{
		"-app", AppID,
		"-depot", DepotID,
		"-username", d.username,
		"-password", d.password,
		"-remember-password",
		"-dir", dir,
	}
}

// manifestIDFromDir finds the manifest_<depot>_<id>.txt file DepotDownloader
// writes and extracts the trailing manifest id.
func manifestIDFromDir(dir string) (string, error) {
	pattern := filepath.Join(dir, "manifest_"+DepotID+"_*.txt")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", errors.Wrap(err, "failed to glob manifest files")
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no manifest file for depot %s in %s", DepotID, dir)
	}

	id, err := parseManifestFileName(filepath.Base(matches[len(matches)-1]))
	if err != nil {
		return "", err
	}
	return id, nil
}

// parseManifestFileName extracts the manifest id from a file name shaped
// like manifest_1491005_1234567890.txt.
func parseManifestFileName(name string) (string, error) {
	base := strings.TrimSuffix(name, ".txt")
	parts := strings.Split(base, "_")
	if len(parts) != 3 || parts[0] != "manifest" {
		return "", fmt.Errorf("unexpected manifest file name %q", name)
	}
	id := parts[2]
	if id == "" {
		return "", fmt.Errorf("empty manifest id in %q", name)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("non-numeric manifest id in %q", name)
		}
	}
	return id, nil
}
