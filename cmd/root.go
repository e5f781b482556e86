package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"yamdb/pkg/database"
	"yamdb/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "yamdb",
	Short: "YaMDb review catalogue API",
	Long: `YaMDb collects user reviews of titles (books, films, music) grouped by
category and genre.

Available commands:
  serve            - Run the HTTP API
  migrate          - Apply pending database migrations
  loadcsv          - Import seed data from CSV files
  createsuperuser  - Create or promote an administrator`,
	SilenceUsage: true,
}

// Execute runs the root command. Running the binary without a command serves the API.
func Execute() {
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newLoadCSVCommand())
	rootCmd.AddCommand(newCreateSuperuserCommand())
	rootCmd.RunE = runServe
	rootCmd.Flags().Bool("migrate", true, "Apply pending migrations before serving")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime bundles what every command needs.
type runtime struct {
	config *utils.Config
	log    *zap.Logger
	db     database.PgxIface
}

func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.log.Sync()
}

// bootstrap loads config, opens the log file and connects to the database.
func bootstrap(ctx context.Context, logFile string, level *zapcore.Level) (*runtime, error) {
	config, err := utils.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(utils.LogOptions{
		Dir:   config.App.LogPath,
		File:  logFile,
		App:   config.App.Name,
		Debug: config.App.Debug,
		Level: level,
	})
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}

	db, err := database.InitDB(ctx, config.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		_ = logger.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &runtime{config: config, log: logger, db: db}, nil
}

func migrate(ctx context.Context, rt *runtime) error {
	if err := database.RunMigrations(ctx, rt.db, rt.log); err != nil {
		rt.log.Error("Migration failed", zap.Error(err))
		return err
	}
	return nil
}
