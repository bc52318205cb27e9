package config

import "time"

// ValueType describes how an option is parsed and displayed.
type ValueType int

const (
	TypeBool ValueType = iota
	TypeString
	TypePath
	TypeEnum
	TypeDuration
)

// Option declares one configurable value: its stable key, the kebab-case
// flag and UPPER_SNAKE environment variable it binds to, and the rules the
// resolver applies. A nil Default means the option is required whenever its
// owning root resolves to true.
type Option struct {
	Key       string
	Flag      string
	Env       string
	Type      ValueType
	Default   any
	Sensitive bool
	Root      bool
	DependsOn string // key of the owning root option
	Enum      []string
	Help      string
}

// Required reports whether the option has no fallback value.
func (o Option) Required() bool { return o.Default == nil }

// LogLevels is the closed set accepted by LOG_LEVEL.
var LogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// Schema is the single source of truth for every option. Declared once at
// process start; the resolver and the flag registration both walk it.
var Schema = []Option{
	{
		Key: "LOG_LEVEL", Flag: "log-level", Env: "LOG_LEVEL",
		Type: TypeEnum, Default: "DEBUG", Enum: LogLevels,
		Help: "Logging level. Must be one of: DEBUG, INFO, WARNING, ERROR, CRITICAL.",
	},

	// Dependencies stage
	{
		Key: "SHOULD_DOWNLOAD_DEPENDENCIES", Flag: "should-download-dependencies", Env: "SHOULD_DOWNLOAD_DEPENDENCIES",
		Type: TypeBool, Default: false, Root: true,
		Help: "Whether to download dependencies.",
	},
	{
		Key: "FORCE_DOWNLOAD_DEPENDENCIES", Flag: "force-download-dependencies", Env: "FORCE_DOWNLOAD_DEPENDENCIES",
		Type: TypeBool, Default: false, DependsOn: "SHOULD_DOWNLOAD_DEPENDENCIES",
		Help: "Re-download dependencies even if they are already present.",
	},

	// Download stage
	{
		Key: "SHOULD_DOWNLOAD_STEAM_GAME", Flag: "should-download-steam-game", Env: "SHOULD_DOWNLOAD_STEAM_GAME",
		Type: TypeBool, Default: false, Root: true,
		Help: "Whether to download Steam game files.",
	},
	{
		Key: "FORCE_STEAM_DOWNLOAD", Flag: "force-steam-download", Env: "FORCE_STEAM_DOWNLOAD",
		Type: TypeBool, Default: false, DependsOn: "SHOULD_DOWNLOAD_STEAM_GAME",
		Help: "Re-download/update Steam game files even if they are already present.",
	},
	{
		Key: "MANIFEST_ID", Flag: "manifest-id", Env: "MANIFEST_ID",
		Type: TypeString, Default: "", DependsOn: "SHOULD_DOWNLOAD_STEAM_GAME",
		Help: "Steam manifest ID to download. If blank, the latest manifest ID will be used.",
	},
	{
		Key: "STEAM_USERNAME", Flag: "steam-username", Env: "STEAM_USERNAME",
		Type: TypeString, DependsOn: "SHOULD_DOWNLOAD_STEAM_GAME",
		Help: "Steam username for authentication.",
	},
	{
		Key: "STEAM_PASSWORD", Flag: "steam-password", Env: "STEAM_PASSWORD",
		Type: TypeString, Sensitive: true, DependsOn: "SHOULD_DOWNLOAD_STEAM_GAME",
		Help: "Steam password for authentication.",
	},
	{
		Key: "STEAM_GAME_DOWNLOAD_PATH", Flag: "steam-game-download-path", Env: "STEAM_GAME_DOWNLOAD_PATH",
		Type: TypePath, DependsOn: "SHOULD_DOWNLOAD_STEAM_GAME",
		Help: "Path to the local Steam game installation directory.",
	},

	// Mapping stage
	{
		Key: "SHOULD_GET_MAPPER", Flag: "should-get-mapper", Env: "SHOULD_GET_MAPPER",
		Type: TypeBool, Default: false, Root: true,
		Help: "Whether to get the mapping file using Dumper7.",
	},
	{
		Key: "FORCE_GET_MAPPER", Flag: "force-get-mapper", Env: "FORCE_GET_MAPPER",
		Type: TypeBool, Default: false, DependsOn: "SHOULD_GET_MAPPER",
		Help: "Re-generate the mapping file even if it already exists.",
	},
	{
		Key: "DUMPER7_OUTPUT_DIR", Flag: "dumper7-output-dir", Env: "DUMPER7_OUTPUT_DIR",
		Type: TypePath, DependsOn: "SHOULD_GET_MAPPER",
		Help: "Path to where Dumper7 outputs its generated SDK.",
	},
	{
		Key: "OUTPUT_MAPPER_FILE", Flag: "output-mapper-file", Env: "OUTPUT_MAPPER_FILE",
		Type: TypePath, DependsOn: "SHOULD_GET_MAPPER",
		Help: "Path to save the generated mapping file (.usmap) at. Should end in .usmap.",
	},

	// Export stage
	{
		Key: "SHOULD_BATCH_EXPORT", Flag: "should-batch-export", Env: "SHOULD_BATCH_EXPORT",
		Type: TypeBool, Default: false, Root: true,
		Help: "Whether to run the BatchExport tool to export assets.",
	},
	{
		Key: "FORCE_EXPORT", Flag: "force-export", Env: "FORCE_EXPORT",
		Type: TypeBool, Default: false, DependsOn: "SHOULD_BATCH_EXPORT",
		Help: "Re-run the BatchExport even if output directory is not empty.",
	},
	{
		Key: "OUTPUT_DATA_DIR", Flag: "output-data-dir", Env: "OUTPUT_DATA_DIR",
		Type: TypePath, DependsOn: "SHOULD_BATCH_EXPORT",
		Help: "Path to save the exported assets to.",
	},

	// Runtime plumbing
	{
		Key: "WORK_DIR", Flag: "work-dir", Env: "WORK_DIR",
		Type: TypePath, Default: ".wrfexporter",
		Help: "Scratch directory for tool installs, temp downloads and FSM state.",
	},
	{
		Key: "LEDGER_PATH", Flag: "ledger-path", Env: "LEDGER_PATH",
		Type: TypePath, Default: "",
		Help: "SQLite run ledger path. Defaults to <work-dir>/ledger.db.",
	},
	{
		Key: "DLL_PATH", Flag: "dll-path", Env: "DLL_PATH",
		Type: TypePath, Default: "",
		Help: "Path to the Dumper-7 payload library. Defaults to <work-dir>/Dumper-7.dll.",
	},
	{
		Key: "INJECT_TIMEOUT", Flag: "inject-timeout", Env: "INJECT_TIMEOUT",
		Type: TypeDuration, Default: 10 * time.Minute,
		Help: "How long the mapping stage waits for the payload to write its artifact.",
	},
	{
		Key: "POLL_INTERVAL", Flag: "poll-interval", Env: "POLL_INTERVAL",
		Type: TypeDuration, Default: time.Second,
		Help: "How often the mapping stage checks for the generated artifact.",
	},
}

// ByKey returns the schema entry for a key. Panics on unknown keys since the
// schema is static and a miss is a programming error.
func ByKey(key string) Option {
	for _, o := range Schema {
		if o.Key == key {
			return o
		}
	}
	panic("config: unknown option key " + key)
}

// RootOptions returns the boolean stage gates in schema order.
func RootOptions() []Option {
	var roots []Option
	for _, o := range Schema {
		if o.Root {
			roots = append(roots, o)
		}
	}
	return roots
}
