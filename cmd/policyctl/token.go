package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"policyhub/internal/config"
	appctx "policyhub/internal/core/context"
	"policyhub/internal/domain/auth"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		userID string
		email  string
		roles  []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API (operators and tests)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}
			cfg, err := config.Load(c.configFile)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not configured")
			}

			svc := auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret))
			token, expiresAt, err := svc.GenerateAccessToken(appctx.UserContext{
				UserID:   userID,
				TenantID: c.tenantID,
				Email:    email,
				Roles:    roles,
			}, ttl)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"accessToken": token,
				"expiresAt":   expiresAt,
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "policyctl", "Subject user id")
	cmd.Flags().StringVar(&email, "email", "", "Subject email")
	cmd.Flags().StringSliceVar(&roles, "role", []string{auth.RoleIssuer}, "Roles to grant (numbering:admin, numbering:issue)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
