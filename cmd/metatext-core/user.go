package main

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driving"
	"github.com/custodia-labs/metatext-core/internal/core/services"
)

func newUserCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCommand(cc))
	cmd.AddCommand(newUserListCommand(cc))
	return cmd
}

func newUserCreateCommand(cc *commandContext) *cobra.Command {
	var req driving.CreateUserRequest
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Role = domain.Role(role)
			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid user: %w", err)
			}

			cfg, logger, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			user, err := services.NewUserService(b.users, b.authAdptr).Create(ctx, req)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address used to log in")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "Role: admin or member")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserListCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			users, err := services.NewUserService(b.users, b.authAdptr).List(ctx)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				lastLogin := "never"
				if u.LastLoginAt != nil {
					lastLogin = u.LastLoginAt.Format(time.RFC3339)
				}
				rows = append(rows, []string{u.Email, u.Name, string(u.Role), lastLogin})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"EMAIL", "NAME", "ROLE", "LAST LOGIN"}, rows, nil))
			return nil
		},
	}
}
