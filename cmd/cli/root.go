package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// v collects flags, environment and config file values for config.LoadConfig.
	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "pr-warden",
	Short: "pr-warden reviews pull requests with a language model.",
	Long: `pr-warden fetches a pull request from Bitbucket Cloud or GitHub, asks a
language model to review the diff against your team's rules, and prints the
review together with an APPROVE, APPROVE_WITH_COMMENTS or DECLINE decision.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./.pr-warden.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "tint", "log format (tint, text, json)")

	mustBind(v.BindPFlag("logging.level", flags.Lookup("log-level")))
	mustBind(v.BindPFlag("logging.format", flags.Lookup("log-format")))
}

func mustBind(err error) {
	if err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}
