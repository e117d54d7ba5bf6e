package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sheet_relay/internal/app"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	layoutPath string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "sheet-relay",
	Short: "Relay Google Sheets values to Slack and Trello",
	Long: `sheet-relay reads cells from a Google spreadsheet and relays them outward.

  report  posts a report to the Slack channel chosen by checkbox cells
  cards   keeps one summary comment per Trello card in sync with the epics sheet

Credentials and channel ids come from the environment (a .env file is loaded
if present). Each run does its work once and exits; schedule it externally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupEnvironment()
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Post the sheet report to Slack",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := app.LoadReportConfig(layoutPath)
		if err != nil {
			return err
		}

		dispatcher, err := app.NewDispatcher(ctx, cfg, dryRun)
		if err != nil {
			return err
		}

		result, err := dispatcher.Run(ctx)
		if err != nil {
			return err
		}

		log.Info().
			Int("posts", len(result.Posts)).
			Int("failed", result.Failed()).
			Bool("dry_run", dryRun).
			Msg("Report run complete")
		return nil
	},
}

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Upsert summary comments on Trello cards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := app.LoadCardsConfig(layoutPath)
		if err != nil {
			return err
		}

		upserter, trelloClient, err := app.NewUpserter(ctx, cfg, dryRun)
		if err != nil {
			return err
		}

		if _, err := upserter.Run(ctx); err != nil {
			return err
		}

		log.Debug().
			Int64("api_calls", trelloClient.GetAPICallCount()).
			Msg("Trello API calls this run")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&layoutPath, "layout", "", "YAML file overriding the sheet layout (default $LAYOUT_FILE)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "read the sheet but only log what would be delivered")
	rootCmd.AddCommand(reportCmd, cardsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Run failed")
		stop()
		os.Exit(1)
	}
}
