package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/surxe/wrfexporter/internal/config"
	"github.com/surxe/wrfexporter/pkg/errors"
	"github.com/surxe/wrfexporter/pkg/ledger"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent pipeline runs and their stage outcomes",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.ResolveStatic(viper.GetViper())
	if err != nil {
		return errors.Wrap(err, "config resolution failed")
	}

	repo, err := ledger.NewRepository(cfg.LedgerPath)
	if err != nil {
		return errors.Wrap(err, "ledger init failed")
	}
	defer repo.Close()

	runs, err := repo.ListRuns(statusLimit)
	if err != nil {
		return errors.Wrap(err, "list failed")
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-6s %-20s %-20s %-8s\n", "RUN", "STARTED", "FINISHED", "STATUS")
	fmt.Println("---------------------------------------------------------")
	for _, run := range runs {
		finished := "-"
		if run.FinishedAt != nil {
			finished = run.FinishedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-6d %-20s %-20s %-8s\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), finished, run.Status)

		stages, err := repo.StagesForRun(run.ID)
		if err != nil {
			return errors.Wrap(err, "stage lookup failed")
		}
		for _, stage := range stages {
			marker := stage.Marker
			if marker == "" {
				marker = "-"
			}
			fmt.Printf("       %-14s %-8s %s\n", stage.Stage, stage.Outcome, marker)
			if stage.Detail != "" {
				fmt.Printf("       %-14s %s\n", "", stage.Detail)
			}
		}
	}

	return nil
}
