package cmd

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd.Context(), "app.log", nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			return migrate(cmd.Context(), rt)
		},
	}
}
