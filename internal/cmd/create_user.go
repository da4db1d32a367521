package cmd

import (
	"context"
	"fmt"

	"github.com/astrathh/taskify-habitory/internal/config"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/spf13/cobra"
)

func newCreateUserCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account if the email is not registered yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}

			backend, err := openBackend(ctx, cfg, logging.NopLogger())
			if err != nil {
				return err
			}
			defer backend.Close(context.Background())

			user, created, err := service.NewUserService(backend, nil).EnsureUser(ctx, email, name, password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "用户已存在: %s\n", user.Email)
				return nil
			}
			fmt.Fprintf(out, "用户创建成功: %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password (min 6 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
