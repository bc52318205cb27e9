package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/surxe/wrfexporter/pkg/errors"
)

// Resolve merges every schema option from the supplied viper instance in
// priority order (explicit flag > environment > default), applies the
// all-roots-flip rule, validates dependent and enumerated options, and
// returns the immutable configuration.
//
// The caller is expected to have bound command-line flags already (see the
// commands package); Resolve binds the environment variables itself so tests
// can drive it with a bare viper and t.Setenv.
func Resolve(v *viper.Viper) (*Config, error) {
	for _, opt := range Schema {
		if opt.Default != nil {
			v.SetDefault(opt.Flag, opt.Default)
		}
		// Exact env names, no prefix: STEAM_USERNAME, not WRF_STEAM_USERNAME.
		_ = v.BindEnv(opt.Flag, opt.Env)
	}

	applyRootFlip(v)

	if err := validateEnums(v); err != nil {
		return nil, err
	}
	if err := validateDependents(v); err != nil {
		return nil, err
	}

	cfg := build(v)
	slog.Debug("config_resolved", "options", len(Schema))
	return cfg, nil
}

// ResolveStatic resolves options for commands that run no stages. The root
// gates are forced off so stage-scoped required options are not demanded
// just to read the ledger or clean the work dir.
func ResolveStatic(v *viper.Viper) (*Config, error) {
	for _, root := range RootOptions() {
		v.Set(root.Flag, false)
	}
	return Resolve(v)
}

// applyRootFlip enables every stage when the user expressed no preference:
// if none of the root gates was explicitly set by flag or environment, all
// of them flip to true.
func applyRootFlip(v *viper.Viper) {
	for _, root := range RootOptions() {
		if v.IsSet(root.Flag) {
			return
		}
	}
	for _, root := range RootOptions() {
		v.Set(root.Flag, true)
	}
	slog.Debug("config_root_flip", "reason", "no_root_option_set")
}

func validateEnums(v *viper.Viper) error {
	for _, opt := range Schema {
		if opt.Type != TypeEnum {
			continue
		}
		val := v.GetString(opt.Flag)
		ok := false
		for _, allowed := range opt.Enum {
			if val == allowed {
				ok = true
				break
			}
		}
		if !ok {
			slog.Error("config_invalid_option", "option", opt.Key, "value", val)
			return errors.New(errors.InvalidOptionValue,
				"%s: %q is not one of %v", opt.Key, val, opt.Enum)
		}
	}
	return nil
}

// validateDependents enforces the declarative required-if graph: an option
// with no default must carry a value whenever its owning root is true.
func validateDependents(v *viper.Viper) error {
	for _, opt := range Schema {
		if opt.DependsOn == "" || !opt.Required() {
			continue
		}
		root := ByKey(opt.DependsOn)
		if !v.GetBool(root.Flag) {
			continue
		}
		if !v.IsSet(opt.Flag) || v.GetString(opt.Flag) == "" {
			slog.Error("config_missing_option", "option", opt.Key, "root", root.Key)
			return errors.New(errors.MissingRequiredOption,
				"%s is required when %s is true", opt.Key, root.Key)
		}
	}
	return nil
}

func build(v *viper.Viper) *Config {
	cfg := &Config{
		LogLevel: v.GetString("log-level"),

		ShouldDownloadDependencies: v.GetBool("should-download-dependencies"),
		ForceDownloadDependencies:  v.GetBool("force-download-dependencies"),

		ShouldDownloadSteamGame: v.GetBool("should-download-steam-game"),
		ForceSteamDownload:      v.GetBool("force-steam-download"),
		ManifestID:              v.GetString("manifest-id"),
		SteamUsername:           v.GetString("steam-username"),
		SteamPassword:           v.GetString("steam-password"),
		SteamGameDownloadPath:   v.GetString("steam-game-download-path"),

		ShouldGetMapper:  v.GetBool("should-get-mapper"),
		ForceGetMapper:   v.GetBool("force-get-mapper"),
		Dumper7OutputDir: v.GetString("dumper7-output-dir"),
		OutputMapperFile: v.GetString("output-mapper-file"),

		ShouldBatchExport: v.GetBool("should-batch-export"),
		ForceExport:       v.GetBool("force-export"),
		OutputDataDir:     v.GetString("output-data-dir"),

		WorkDir:       v.GetString("work-dir"),
		LedgerPath:    v.GetString("ledger-path"),
		DLLPath:       v.GetString("dll-path"),
		InjectTimeout: v.GetDuration("inject-timeout"),
		PollInterval:  v.GetDuration("poll-interval"),
	}

	if cfg.LedgerPath == "" {
		cfg.LedgerPath = filepath.Join(cfg.WorkDir, "ledger.db")
	}
	if cfg.DLLPath == "" {
		cfg.DLLPath = filepath.Join(cfg.WorkDir, "Dumper-7.dll")
	}

	cfg.masked = make(map[string]string, len(Schema))
	for _, opt := range Schema {
		if opt.Sensitive {
			cfg.masked[opt.Key] = "***HIDDEN***"
			continue
		}
		cfg.masked[opt.Key] = fmt.Sprintf("%v", v.Get(opt.Flag))
	}

	return cfg
}
