package cmd

import (
	"fmt"
	"os"

	"yamdb/internal/data/repository"
	"yamdb/internal/importer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	dirFlag      = "dir"
	logLevelFlag = "log-level"
)

func newLoadCSVCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loadcsv",
		Short: "Import seed data from CSV files",
		Long: `Import category.csv, genre.csv, titles.csv, genre_title.csv, users.csv,
review.csv and comments.csv from a directory, in that order.

Rows keep their ids. Rows that fail to parse or reference missing records are
logged and skipped. Output goes to the console and load_csv.log.

Examples:
  yamdb loadcsv                                # Use CSV_DATA_DIR
  yamdb loadcsv --dir static/data --log-level debug`,
		RunE: runLoadCSV,
	}

	cmd.Flags().String(dirFlag, "", "Directory with CSV files (defaults to CSV_DATA_DIR)")
	cmd.Flags().String(logLevelFlag, "error", "Log level: debug, info, warn or error")
	return cmd
}

func runLoadCSV(cmd *cobra.Command, _ []string) error {
	rawLevel, _ := cmd.Flags().GetString(logLevelFlag)
	level, err := zapcore.ParseLevel(rawLevel)
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", logLevelFlag, err)
	}

	rt, err := bootstrap(cmd.Context(), "load_csv.log", &level)
	if err != nil {
		return err
	}
	defer rt.Close()

	dir, _ := cmd.Flags().GetString(dirFlag)
	if dir == "" {
		dir = rt.config.Import.DataDir
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("data directory %q is not readable", dir)
	}

	if err := migrate(cmd.Context(), rt); err != nil {
		return err
	}

	loader := importer.NewLoader(repository.NewRepository(rt.db, rt.log), rt.db, rt.log)
	summary, err := loader.Load(cmd.Context(), os.DirFS(dir))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range summary.Files {
		if f.Missing {
			fmt.Fprintf(out, "%-16s missing\n", f.File)
			continue
		}
		fmt.Fprintf(out, "%-16s inserted=%d skipped=%d\n", f.File, f.Inserted, f.Skipped)
	}
	rt.log.Info("CSV import done", zap.String("dir", dir))
	return nil
}
