// Command legalctl manages the LegalEase catalogue and talks to a running API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/legalease/backend/pkg/config"
	"github.com/legalease/backend/pkg/logger"
)

var (
	verbose   bool
	storeFlag string
	sqlPath   string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "legalctl",
	Short: "LegalEase catalogue and client tool",
	Long: `legalctl loads the law catalogue into the configured store and
queries a running LegalEase API.

Store settings come from config.yaml and LEGALEASE_* variables; the
--store and --sqlite-path flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		return logger.Init(level, "console", "stderr")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Store driver override (sqlite, postgres, memory)")
	rootCmd.PersistentFlags().StringVar(&sqlPath, "sqlite-path", "", "SQLite database path override")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(evalCmd)
}

// storeConfig loads the store section and applies flag overrides.
func storeConfig() (config.StoreConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.StoreConfig{}, err
	}

	storeCfg := cfg.Store
	if storeFlag != "" {
		storeCfg.Driver = storeFlag
	}
	if sqlPath != "" {
		storeCfg.SQLitePath = sqlPath
	}
	return storeCfg, nil
}

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
