// Package export converts the game's pak assets to JSON through BatchExport.
package export

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/surxe/wrfexporter/pkg/errors"
	"github.com/surxe/wrfexporter/pkg/proc"
)

const (
	preset        = "WarRobotsFrontiers"
	exportTimeout = 4 * time.Hour
)

// Exporter runs BatchExport over one game install.
type Exporter struct {
	exePath     string
	gameDir     string
	outputDir   string
	mappingFile string
	debug       bool
}

// NewExporter creates an exporter. mappingFile is the .usmap produced by
// the mapper stage, outputDir receives the exported JSON tree.
func NewExporter(exePath, gameDir, outputDir, mappingFile string, debug bool) *Exporter {
	return &Exporter{
		exePath:     exePath,
		gameDir:     gameDir,
		outputDir:   outputDir,
		mappingFile: mappingFile,
		debug:       debug,
	}
}

// Export runs the conversion. The output dir is created if needed; the
// other paths must already exist.
func (e *Exporter) Export(ctx context.Context) error {
	if err := e.checkInputs(); err != nil {
		return err
	}
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create export output dir")
	}

	logging := "false"
	if e.debug {
		logging = "true"
	}
	args := []string{
		"--preset", preset,
		"--pak-files-directory", e.gameDir,
		"--export-output-path", e.outputDir,
		"--mapping-file-path", e.mappingFile,
		"--is-logging-enabled", logging,
	}

	slog.Info("export_starting", "game_dir", e.gameDir, "output_dir", e.outputDir)
	if err := proc.Run(ctx, e.exePath, args, exportTimeout); err != nil {
		return errors.WrapKind(err, errors.ToolInvocationError, "batch export")
	}
	slog.Info("export_complete", "output_dir", e.outputDir)
	return nil
}

func (e *Exporter) checkInputs() error {
	if _, err := os.Stat(e.exePath); err != nil {
		return errors.New(errors.PathError, "BatchExport executable not found at %s", e.exePath)
	}
	if info, err := os.Stat(e.gameDir); err != nil || !info.IsDir() {
		return errors.New(errors.PathError, "game directory not found at %s", e.gameDir)
	}
	if _, err := os.Stat(e.mappingFile); err != nil {
		return errors.New(errors.PathError, "mapping file not found at %s", e.mappingFile)
	}
	return nil
}

// Exported reports whether the output dir already holds exported data.
// Used by the step gate's presence check.
func Exported(outputDir string) bool {
	entries, err := os.ReadDir(outputDir)
	return err == nil && len(entries) > 0
}
