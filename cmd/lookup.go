package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"secindex/ciklookup"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup TERM...",
	Short: "Resolve ticker symbols or company titles to CIK numbers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		ciks, err := ciklookup.Resolve(cmd.Context(), c, args)
		if err != nil {
			return err
		}

		for _, term := range args {
			if cik, ok := ciks[term]; ok {
				fmt.Printf("%s\t%s\n", term, cik)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
