package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillpress/blog-api/internal/core/domain"
	"github.com/quillpress/blog-api/internal/core/service"
	"github.com/quillpress/blog-api/internal/infrastructure/security"
	"github.com/quillpress/blog-api/internal/pkg/validation"
)

func bootstrapAdminCmd() *cobra.Command {
	var in service.BootstrapInput
	var role string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create an admin or editor account if it does not exist",
		Long: `Creates a privileged account. This is the only way to obtain the
admin or editor role. Running it again with the same email is a no-op.
When --password is omitted a random password is generated and printed once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			st, err := openStores(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.close(context.Background()) }()

			in.Role = domain.Role(role)
			res, err := service.BootstrapAccount(ctx, st.accounts, security.NewBcryptHasher(), validation.New(), in, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Created {
				fmt.Fprintf(out, "account %s already exists (role=%s)\n", res.Account.Email, res.Account.Role)
				return nil
			}
			fmt.Fprintf(out, "created %s account %s (%s)\n", res.Account.Role, res.Account.Username, res.Account.Email)
			if res.GeneratedPassword != "" {
				fmt.Fprintf(out, "generated password: %s\n", res.GeneratedPassword)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&in.Username, "username", "", "Account username (required)")
	cmd.Flags().StringVar(&in.DisplayName, "display-name", "", "Display name (defaults to the username)")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (generated when empty)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "Role: admin or editor")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
