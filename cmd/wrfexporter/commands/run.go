package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/superfly/fsm"

	"github.com/surxe/wrfexporter/internal/config"
	"github.com/surxe/wrfexporter/pkg/deps"
	"github.com/surxe/wrfexporter/pkg/errors"
	"github.com/surxe/wrfexporter/pkg/export"
	"github.com/surxe/wrfexporter/pkg/inject"
	"github.com/surxe/wrfexporter/pkg/ledger"
	"github.com/surxe/wrfexporter/pkg/mapper"
	"github.com/surxe/wrfexporter/pkg/pipeline"
	"github.com/surxe/wrfexporter/pkg/steam"
)

const fsmMaxRetries = 3

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the extraction pipeline",
	Long:  `Runs the four pipeline stages in order: dependencies, download, mapping, export. Stages whose work is already present are skipped unless forced.`,
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Resolve(viper.GetViper())
	if err != nil {
		return errors.Wrap(err, "config resolution failed")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
	logOptions(cfg)

	if err := ensureDirectories(cfg); err != nil {
		return err
	}

	var rec pipeline.Recorder
	repo, err := ledger.NewRepository(cfg.LedgerPath)
	if err != nil {
		slog.Warn("ledger_init_failed", "path", cfg.LedgerPath, "error", err)
	} else {
		defer repo.Close()
		rec = repo
	}

	manager, err := fsm.New(fsm.Config{DBPath: cfg.FSMDBPath()})
	if err != nil {
		return errors.Wrap(err, "FSM manager failed")
	}
	defer manager.Shutdown(10 * time.Second)

	machine := mapper.NewMachine(inject.New(), cfg.PollInterval, cfg.InjectTimeout, fsmMaxRetries)
	defer machine.Close()

	startMapping, _, err := machine.Register(ctx, manager)
	if err != nil {
		return errors.Wrap(err, "FSM register failed")
	}

	ddSpec := deps.DepotDownloaderSpec(cfg.DepotDownloaderDir())
	beSpec := deps.BatchExportSpec(cfg.BatchExportDir())

	steps := []pipeline.Step{
		dependenciesStep(cfg, ddSpec, beSpec),
		downloadStep(cfg, ddSpec),
		mappingStep(cfg, manager, startMapping),
		exportStep(cfg, beSpec),
	}

	result := pipeline.New(rec, steps...).Execute(ctx)

	for _, stage := range result.Stages {
		slog.Info("run_summary", "stage", stage.Name, "outcome", string(stage.Outcome), "marker", stage.Marker)
	}
	if result.Failed() {
		return result.Err
	}

	slog.Info("run_complete", "run_id", result.RunID)
	return nil
}

func dependenciesStep(cfg *config.Config, ddSpec, beSpec deps.ToolSpec) pipeline.Step {
	return pipeline.Step{
		Name:    "dependencies",
		Enabled: cfg.ShouldDownloadDependencies,
		Force:   cfg.ForceDownloadDependencies,
		Present: func() bool {
			return deps.Installed(ddSpec) && deps.Installed(beSpec)
		},
		Invoke: func(ctx context.Context) (string, error) {
			mgr := deps.NewManager(cfg.WorkDir)
			defer mgr.Cleanup()

			ddVersion, err := mgr.Install(ctx, ddSpec, cfg.ForceDownloadDependencies)
			if err != nil {
				return "", err
			}
			beVersion, err := mgr.Install(ctx, beSpec, cfg.ForceDownloadDependencies)
			if err != nil {
				return "", err
			}
			return ddVersion + "," + beVersion, nil
		},
	}
}

func downloadStep(cfg *config.Config, ddSpec deps.ToolSpec) pipeline.Step {
	exePath := filepath.Join(ddSpec.InstallDir, ddSpec.Executable)
	dl := steam.NewDownloader(exePath, cfg.SteamGameDownloadPath, cfg.SteamUsername, cfg.SteamPassword)

	return pipeline.Step{
		Name:    "download",
		Enabled: cfg.ShouldDownloadSteamGame,
		Force:   cfg.ForceSteamDownload,
		Present: func() bool {
			// Without a pinned manifest the gate cannot tell whether the
			// install is current; the stage itself probes the latest id.
			if cfg.ManifestID == "" {
				return false
			}
			if steam.InstalledManifest(cfg.SteamGameDownloadPath) != cfg.ManifestID {
				return false
			}
			entries, err := os.ReadDir(cfg.SteamGameDownloadPath)
			return err == nil && len(entries) > 1
		},
		Invoke: func(ctx context.Context) (string, error) {
			target := cfg.ManifestID
			if target == "" {
				latest, err := dl.LatestManifest(ctx)
				if err != nil {
					return "", err
				}
				target = latest
			}
			if !cfg.ForceSteamDownload &&
				steam.InstalledManifest(cfg.SteamGameDownloadPath) == target {
				slog.Info("steam_install_current", "manifest_id", target)
				return target, nil
			}
			return dl.Download(ctx, target)
		},
	}
}

func mappingStep(cfg *config.Config, manager *fsm.Manager, start fsm.Start[mapper.MapperRequest, mapper.MapperResponse]) pipeline.Step {
	return pipeline.Step{
		Name:    "mapping",
		Enabled: cfg.ShouldGetMapper,
		Force:   cfg.ForceGetMapper,
		Present: func() bool {
			return mapper.Mapped(cfg.OutputMapperFile)
		},
		Invoke: func(ctx context.Context) (string, error) {
			req := &mapper.MapperRequest{
				GameExe:    mapper.GameExePath(cfg.SteamGameDownloadPath),
				DLLPath:    cfg.DLLPath,
				DumpDir:    cfg.Dumper7OutputDir,
				OutputFile: cfg.OutputMapperFile,
			}
			resp := &mapper.MapperResponse{}

			version, err := start(ctx, req.OutputFile, fsm.NewRequest(req, resp))
			if err != nil {
				return "", errors.Wrap(err, "FSM start failed")
			}
			slog.Info("mapping_fsm_started", "version", version)

			if err := manager.Wait(ctx, version); err != nil {
				return "", err
			}
			return resp.OutputFile, nil
		},
	}
}

func exportStep(cfg *config.Config, beSpec deps.ToolSpec) pipeline.Step {
	exePath := filepath.Join(beSpec.InstallDir, beSpec.Executable)
	exp := export.NewExporter(exePath, cfg.SteamGameDownloadPath, cfg.OutputDataDir,
		cfg.OutputMapperFile, cfg.LogLevel == "DEBUG")

	return pipeline.Step{
		Name:    "export",
		Enabled: cfg.ShouldBatchExport,
		Force:   cfg.ForceExport,
		Present: func() bool {
			return export.Exported(cfg.OutputDataDir)
		},
		Invoke: func(ctx context.Context) (string, error) {
			if err := exp.Export(ctx); err != nil {
				return "", err
			}
			return cfg.OutputDataDir, nil
		},
	}
}

// logOptions prints the resolved configuration with sensitive values masked.
func logOptions(cfg *config.Config) {
	masked := cfg.Masked()
	keys := make([]string, 0, len(masked))
	for k := range masked {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		slog.Debug("config_option", "key", k, "value", masked[k])
	}
}
