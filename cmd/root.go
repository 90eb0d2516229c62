package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"secindex/client"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "secindex",
	Short: "Retrieve SEC filings through EDGAR index files",
	Long: `secindex downloads SEC filings by date range using EDGAR's daily and
quarterly master index files. The SEC requires a descriptive User-Agent
("Company Name contact@email.com") on every request; set one with
--user-agent or the SECINDEX_USER_AGENT environment variable.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("user-agent", "", "User-Agent header, e.g. \"Company Name contact@email.com\"")
	flags.Int("rate-limit", 10, "requests per second (SEC caps this at 10)")
	flags.Int("retry-count", 3, "times to retry a failed request")
	flags.Duration("pause", 500*time.Millisecond, "wait between retries")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("SECINDEX")
	viper.AutomaticEnv()
	viper.BindPFlag("user_agent", flags.Lookup("user-agent"))
	viper.BindPFlag("rate_limit", flags.Lookup("rate-limit"))
	viper.BindPFlag("retry_count", flags.Lookup("retry-count"))
	viper.BindPFlag("pause", flags.Lookup("pause"))
}

func newClient() (*client.Client, error) {
	userAgent := viper.GetString("user_agent")
	if userAgent == "" {
		return nil, fmt.Errorf("a user agent is required by SEC policy; set --user-agent or SECINDEX_USER_AGENT")
	}
	return client.New(
		client.WithUserAgent(userAgent),
		client.WithRateLimit(viper.GetInt("rate_limit")),
		client.WithRetryCount(viper.GetInt("retry_count")),
		client.WithPause(viper.GetDuration("pause")),
	)
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("dates must be YYYY-MM-DD, got %q", value)
	}
	return date, nil
}
