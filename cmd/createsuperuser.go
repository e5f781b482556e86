package cmd

import (
	"errors"
	"fmt"

	"yamdb/internal/data/repository"
	"yamdb/internal/usecase"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCreateSuperuserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an administrator or promote an existing user",
		RunE:  runCreateSuperuser,
	}

	cmd.Flags().String("username", "", "Username of the administrator (required)")
	cmd.Flags().String("email", "", "Email of the administrator (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runCreateSuperuser(cmd *cobra.Command, _ []string) error {
	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")

	rt, err := bootstrap(cmd.Context(), "app.log", nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := migrate(cmd.Context(), rt); err != nil {
		return err
	}

	users := usecase.NewUserService(repository.NewUserRepository(rt.db, rt.log), rt.log)
	user, err := users.CreateSuperuser(cmd.Context(), username, email)
	if err != nil {
		var verr *usecase.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid superuser: %v", verr.Fields)
		}
		return err
	}

	rt.log.Info("Superuser ready", zap.String("username", user.Username))
	fmt.Fprintf(cmd.OutOrStdout(), "Superuser %q (%s) is ready\n", user.Username, user.Email)
	return nil
}
