package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"secindex/index"
)

var (
	flagStart          string
	flagEnd            string
	flagDir            string
	flagForms          []string
	flagBalancingPoint int
	flagDownloadAll    bool
	flagDirPattern     string
	flagFilePattern    string
	flagDateFormat     string
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Download all filings in a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDir == "" {
			return fmt.Errorf("--dir is required")
		}
		combo, err := newCombo()
		if err != nil {
			return err
		}

		return combo.Save(cmd.Context(), index.SaveOptions{
			Directory:   flagDir,
			DirPattern:  flagDirPattern,
			FilePattern: flagFilePattern,
			DateFormat:  flagDateFormat,
			DownloadAll: flagDownloadAll,
		})
	},
}

func newCombo() (*index.ComboFilings, error) {
	start, err := parseDate(flagStart)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(flagEnd)
	if err != nil {
		return nil, err
	}
	c, err := newClient()
	if err != nil {
		return nil, err
	}

	options := []index.ComboOption{index.WithBalancingPoint(flagBalancingPoint)}
	if len(flagForms) > 0 {
		options = append(options, index.WithEntryFilter(index.FormTypeFilter(flagForms...)))
	}
	return index.NewComboFilings(c, start, end, options...)
}

func init() {
	saveCmd.Flags().StringVar(&flagStart, "start", "", "range start date (YYYY-MM-DD)")
	saveCmd.Flags().StringVar(&flagEnd, "end", "", "range end date (YYYY-MM-DD)")
	saveCmd.Flags().StringVar(&flagDir, "dir", "", "directory to store filings in")
	saveCmd.Flags().StringSliceVar(&flagForms, "forms", nil, "only keep these form types, e.g. 10-K,8-K")
	saveCmd.Flags().IntVar(&flagBalancingPoint, "balancing-point", 30,
		"day threshold for switching from daily to quarterly lookups")
	saveCmd.Flags().BoolVar(&flagDownloadAll, "download-all", false,
		"download bulk archives instead of individual filings")
	saveCmd.Flags().StringVar(&flagDirPattern, "dir-pattern", "",
		"subdirectory template; tokens {cik} and {date}")
	saveCmd.Flags().StringVar(&flagFilePattern, "file-pattern", "",
		"filename template; token {accession_number}")
	saveCmd.Flags().StringVar(&flagDateFormat, "date-format", "",
		"Go layout for the {date} token (default 20060102)")
	saveCmd.MarkFlagRequired("start")
	saveCmd.MarkFlagRequired("end")
	saveCmd.MarkFlagRequired("dir")

	rootCmd.AddCommand(saveCmd)
}
