// README: Cobra command tree for the courier-agent binary.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"courier/internal/app"
	"courier/internal/config"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "courier-agent",
		Short: "Delivery partner agent",
		Long: `courier-agent runs a delivery partner's client core: the online/offline session,
the order offer and delivery flow, the earnings ledger and location reporting,
exposed as a local JSON API.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./courier.yaml)")

	root.AddCommand(
		newServeCmd(),
		newEarningsCmd(),
		newExportCmd(),
		newLoginCmd(),
		newTokenCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// withApp builds the agent for a one-shot command and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
