package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuwago/lending/internal/infrastructure/config"
	"github.com/kuwago/lending/pkg/auth"
)

// tokenCmd mints HS256 tokens for local development. Production tokens come
// from the identity service.
func tokenCmd() *cobra.Command {
	var (
		userID string
		roles  []string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Example: `  lendingctl token --user 5b0f... --role borrower
  lendingctl token --user checkout --role gateway --ttl 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if secret == "" {
				secret = cfg.Auth.JWTSecret
			}
			if secret == "" {
				return errors.New("a signing secret is required: pass --secret or set JWT_SECRET")
			}
			for _, r := range roles {
				switch r {
				case auth.RoleBorrower, auth.RoleLender, auth.RoleAdmin, auth.RoleGateway:
				default:
					return fmt.Errorf("unknown role %q", r)
				}
			}

			svc, err := auth.NewJWTService(auth.JWTConfig{
				Secret:     secret,
				Issuer:     cfg.Auth.JWTIssuer,
				Expiration: ttl,
			})
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(userID, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id carried in the token")
	cmd.Flags().StringSliceVar(&roles, "role", []string{auth.RoleBorrower}, "roles to grant (repeatable)")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret, defaults to JWT_SECRET")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
