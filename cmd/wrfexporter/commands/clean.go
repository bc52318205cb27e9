package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/surxe/wrfexporter/internal/config"
	"github.com/surxe/wrfexporter/pkg/errors"
	"github.com/surxe/wrfexporter/pkg/ledger"
)

var (
	cleanAll     bool
	cleanMarkers bool
	cleanLedger  bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached state so the next run starts fresh",
	Long: `Removes cached pipeline state:
  --markers   Remove version and manifest markers so stages re-run
  --ledger    Purge the run ledger
  --all       Remove the whole work directory (tools, markers, ledger, FSM state)`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Remove the whole work directory")
	cleanCmd.Flags().BoolVar(&cleanMarkers, "markers", false, "Remove stage markers")
	cleanCmd.Flags().BoolVar(&cleanLedger, "ledger", false, "Purge the run ledger")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.ResolveStatic(viper.GetViper())
	if err != nil {
		return errors.Wrap(err, "config resolution failed")
	}

	if !cleanAll && !cleanMarkers && !cleanLedger {
		return fmt.Errorf("must specify --all, --markers, or --ledger")
	}

	if cleanAll {
		if err := os.RemoveAll(cfg.WorkDir); err != nil {
			return errors.Wrap(err, "failed to remove work directory")
		}
		fmt.Printf("Removed %s\n", cfg.WorkDir)
		return nil
	}

	if cleanMarkers {
		markers := []string{
			filepath.Join(cfg.DepotDownloaderDir(), "version.txt"),
			filepath.Join(cfg.BatchExportDir(), "version.txt"),
		}
		if cfg.SteamGameDownloadPath != "" {
			markers = append(markers, filepath.Join(cfg.SteamGameDownloadPath, "manifest.txt"))
		}
		for _, marker := range markers {
			if err := os.Remove(marker); err != nil {
				if !os.IsNotExist(err) {
					return errors.Wrap(err, "failed to remove marker")
				}
				continue
			}
			fmt.Printf("Removed %s\n", marker)
		}
	}

	if cleanLedger {
		repo, err := ledger.NewRepository(cfg.LedgerPath)
		if err != nil {
			return errors.Wrap(err, "ledger init failed")
		}
		defer repo.Close()

		if err := repo.Purge(); err != nil {
			return errors.Wrap(err, "ledger purge failed")
		}
		fmt.Println("Ledger purged")
	}

	return nil
}
