package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"courier/internal/app"
	"courier/internal/backend"
)

// newLoginCmd stores the partner's bearer token in the device KV, where the
// HTTP backend client reads it on every call.
func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Save the partner's backend token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok := strings.TrimSpace(args[0])
			if tok == "" {
				return errors.New("token is empty")
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.KV.Set(cmd.Context(), backend.TokenStorageKey, []byte(tok)); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "token saved")
				return nil
			})
		},
	}
}
