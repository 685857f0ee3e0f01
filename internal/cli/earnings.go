package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"courier/internal/app"
	"courier/internal/modules/ledger"
)

func newEarningsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "earnings",
		Short: "Print today's and this week's earnings from the local ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				sum := ledger.Summarize(a.Ledger.All(), time.Now())
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(sum)
				}
				fmt.Fprintf(out, "Today:     %s (%d orders)\n", sum.Today, sum.TodayOrders)
				fmt.Fprintf(out, "This week: %s\n", sum.Week)
				fmt.Fprintf(out, "Completed: %d\n\n", sum.TotalCompleted)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, d := range sum.Weekly {
					fmt.Fprintf(tw, "%s\t%s\n", d.Label, d.Amount)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}
