package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/gitutil"
	"github.com/sevigo/pr-warden/internal/logger"
	"github.com/sevigo/pr-warden/internal/report"
	"github.com/sevigo/pr-warden/internal/wire"
)

var errDeclined = errors.New("pull request declined")

var (
	verbose       bool
	pretty        bool
	failOnDecline bool
	outputFormat  string
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-number|pr-url]",
	Short: "Review a pull request and print the decision",
	Long: `Review a single pull request.

The pull request is taken from the argument, either a number in the configured
repository or a full Bitbucket or GitHub URL. Without an argument the PR number
comes from configuration (PRW_PR or BITBUCKET_PR_ID).

Examples:
  pr-warden review 42 --workspace acme --repo payments
  pr-warden review https://bitbucket.org/acme/payments/pull-requests/42
  pr-warden review https://github.com/acme/payments/pull/7 --output json
  pr-warden review --fail-on-decline --rules docs/REVIEW_RULES.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	flags := reviewCmd.Flags()
	flags.String("host", "", "source-control host: bitbucket or github")
	flags.String("workspace", "", "Bitbucket workspace")
	flags.String("owner", "", "GitHub repository owner")
	flags.String("repo", "", "repository slug")
	flags.String("rules", "", "path to the review rules guide")
	flags.String("model", "", "model name")
	flags.StringVarP(&outputFormat, "output", "o", "text", "output format: text or json")
	flags.BoolVar(&pretty, "pretty", false, "render the review as terminal markdown")
	flags.BoolVar(&failOnDecline, "fail-on-decline", false, "exit with status 2 when the decision is DECLINE")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")

	mustBind(v.BindPFlag("host", flags.Lookup("host")))
	mustBind(v.BindPFlag("bitbucket.workspace", flags.Lookup("workspace")))
	mustBind(v.BindPFlag("github.owner", flags.Lookup("owner")))
	mustBind(v.BindPFlag("bitbucket.repo", flags.Lookup("repo")))
	mustBind(v.BindPFlag("github.repo", flags.Lookup("repo")))
	mustBind(v.BindPFlag("rules.path", flags.Lookup("rules")))
	mustBind(v.BindPFlag("ai.model", flags.Lookup("model")))

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		if err := applyTarget(args[0]); err != nil {
			return err
		}
	}

	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	// Everything that can be checked locally fails before the first request.
	cfg, err := config.LoadConfig(v, cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	rulesGuide, err := config.LoadRulesGuide(cfg.Rules.Path)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Logging, nil)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	overallStart := time.Now()
	if format == report.FormatText {
		titleColor.Fprintln(os.Stderr, "PR Warden - Pull Request Review")
		dimColor.Fprintf(os.Stderr, "   Target: %s #%d (%s)\n\n", cfg.Repository(), cfg.PR, cfg.Host)
	}

	timer := newStepTimer(os.Stderr, 3, verbose)
	application, err := wire.InitializeApp(ctx, cfg, log, timer)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	rep, err := application.Review(ctx, rulesGuide)
	if err != nil {
		return explain(err)
	}

	if verbose {
		dimColor.Fprintf(os.Stderr, "\nTotal time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}

	if err := report.Write(cmd.OutOrStdout(), rep, report.Options{Format: format, Pretty: pretty}); err != nil {
		return err
	}

	if failOnDecline && rep.Review.Decision == core.DecisionDecline {
		return fmt.Errorf("%w: %s", errDeclined, rep.Review.Reason)
	}
	return nil
}

// applyTarget turns a PR number or URL argument into configuration overrides.
func applyTarget(arg string) error {
	if n, err := strconv.Atoi(arg); err == nil {
		if n <= 0 {
			return &core.ConfigurationError{Key: "pr", Reason: "must be a positive pull request number"}
		}
		v.Set("pr", n)
		return nil
	}

	target, err := gitutil.ParsePullRequestURL(arg)
	if err != nil {
		return &core.ConfigurationError{
			Key:    "pr",
			Reason: "expected a PR number or a URL like https://bitbucket.org/ws/repo/pull-requests/1",
			Err:    err,
		}
	}

	v.Set("pr", target.Number)
	switch target.Host {
	case gitutil.HostGitHub:
		v.Set("host", config.HostGitHub)
		v.Set("github.owner", target.Owner)
		v.Set("github.repo", target.Repo)
	case gitutil.HostBitbucket:
		v.Set("host", config.HostBitbucket)
		v.Set("bitbucket.workspace", target.Owner)
		v.Set("bitbucket.repo", target.Repo)
	}
	return nil
}

// explain adds a hint for the failure kinds a user can act on.
func explain(err error) error {
	var te *core.TransportError
	switch {
	case errors.As(err, &te) && (te.StatusCode == 401 || te.StatusCode == 403):
		return fmt.Errorf("%w\n\nTip: Check that your token is valid and has read access to the repository", err)
	case errors.As(err, &te) && te.StatusCode == 404:
		return fmt.Errorf("%w\n\nTip: Check the workspace, repository and PR number", err)
	case core.IsProtocolError(err):
		return fmt.Errorf("%w\n\nTip: The model must support function calling; try a different ai.model", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("review interrupted: %w", err)
	default:
		return err
	}
}
