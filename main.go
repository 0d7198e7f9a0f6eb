package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/p-chth/KaoDuenMate-VER2/internal/config"
	"github.com/p-chth/KaoDuenMate-VER2/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kaoduen",
	Short: "KaoDuen Mate study tracker backend",
	Long: `KaoDuen Mate keeps a student's assignments, exams and course topics,
derives deadlines and progress from them, and tracks a daily activity streak.

Run "kaoduen serve" to start the HTTP API and change feed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds the logger it describes.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadFrom(viper.New(), configPath)
	if err != nil {
		return nil, logger.New(), err
	}

	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)
	return cfg, log, nil
}
