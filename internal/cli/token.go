package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"courier/internal/infra"
)

// newTokenCmd issues a bearer token for the local API when auth.mode is jwt.
func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a local API token for the configured partner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not set")
			}
			tok, err := infra.IssueJWT(cfg.Auth.JWTSecret, cfg.Partner.ID, "partner", ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
