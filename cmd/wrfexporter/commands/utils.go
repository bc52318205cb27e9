package commands

import (
	"os"
	"path/filepath"

	"github.com/surxe/wrfexporter/internal/config"
	"github.com/surxe/wrfexporter/pkg/errors"
)

// ensureDirectories creates the directories a pipeline run writes into.
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.WorkDir,
		cfg.ToolsDir(),
		filepath.Dir(cfg.LedgerPath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create directory "+dir)
		}
	}
	return nil
}
