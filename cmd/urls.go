package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "Print the filing URLs for a date range as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		combo, err := newCombo()
		if err != nil {
			return err
		}

		urls, err := combo.GetURLs(cmd.Context())
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(urls)
	},
}

func init() {
	urlsCmd.Flags().StringVar(&flagStart, "start", "", "range start date (YYYY-MM-DD)")
	urlsCmd.Flags().StringVar(&flagEnd, "end", "", "range end date (YYYY-MM-DD)")
	urlsCmd.Flags().StringSliceVar(&flagForms, "forms", nil, "only keep these form types, e.g. 10-K,8-K")
	urlsCmd.Flags().IntVar(&flagBalancingPoint, "balancing-point", 30,
		"day threshold for switching from daily to quarterly lookups")
	urlsCmd.MarkFlagRequired("start")
	urlsCmd.MarkFlagRequired("end")

	rootCmd.AddCommand(urlsCmd)
}
