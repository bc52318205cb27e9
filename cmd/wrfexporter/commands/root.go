package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/surxe/wrfexporter/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "wrfexporter",
	Short: "War Robots: Frontiers data exporter",
	Long:  `Extracts game data to JSON: installs tooling, downloads the game from Steam, dumps the mapping file via DLL injection, and batch-exports the assets.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Flags are generated from the option schema so the flag surface, the env
// surface, and the resolver can never drift apart.
func init() {
	flags := rootCmd.PersistentFlags()
	for _, opt := range config.Schema {
		switch opt.Type {
		case config.TypeBool:
			def, _ := opt.Default.(bool)
			flags.Bool(opt.Flag, def, opt.Help)
		case config.TypeDuration:
			def, _ := opt.Default.(time.Duration)
			flags.Duration(opt.Flag, def, opt.Help)
		default:
			def, _ := opt.Default.(string)
			flags.String(opt.Flag, def, opt.Help)
		}
		viper.BindPFlag(opt.Flag, flags.Lookup(opt.Flag))
	}
}
