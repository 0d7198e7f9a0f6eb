package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/p-chth/KaoDuenMate-VER2/internal/app"
	"github.com/p-chth/KaoDuenMate-VER2/internal/database"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API and the live change feed.

With the postgres storage driver the database must be reachable; pass
--migrate to apply pending migrations before serving.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	var db *sql.DB
	if cfg.Storage.Driver == "postgres" {
		if serveMigrate {
			migrator, err := database.NewMigrator(cfg.Database)
			if err != nil {
				return err
			}
			if err := migrator.Up(); err != nil {
				return err
			}
			log.Info().Msg("Migrations applied successfully")
		}

		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info().Msg("Database connection established")
	}

	application, err := app.New(cfg, log, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return err
	}

	log.Info().Msg("KaoDuen Mate stopped")
	return nil
}
