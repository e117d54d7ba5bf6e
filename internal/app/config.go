package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sheet_relay/internal/config"
	"sheet_relay/internal/notifications"
	"sheet_relay/internal/processing"
	"sheet_relay/internal/sheets"
	"sheet_relay/internal/trello"

	"github.com/rs/zerolog/log"
)

// ConfigError lists every required setting that was missing or invalid.
type ConfigError struct {
	Keys    []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Keys) > 0 {
		parts = append(parts, "missing required configuration: "+strings.Join(e.Keys, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid configuration: "+strings.Join(e.Invalid, "; "))
	}
	return strings.Join(parts, "; ")
}

// SheetConfig is shared by both jobs.
type SheetConfig struct {
	SpreadsheetID   string
	APIKey          string
	CredentialsFile string
	Endpoint        string
}

type ReportConfig struct {
	Sheet       SheetConfig
	SlackToken  string
	SlackAPIURL string
	Channels    processing.Channels
	Mode        processing.BranchMode
	Concurrency int
	Layout      config.ReportLayout
}

type CardsConfig struct {
	Sheet        SheetConfig
	TrelloKey    string
	TrelloToken  string
	TrelloAPIURL string
	Layout       config.CardsLayout
}

// envReader collects missing keys instead of failing on the first one, so a
// single run reports everything that needs setting.
type envReader struct {
	missing []string
	invalid []string
}

func (r *envReader) required(key string) string {
	value := os.Getenv(key)
	if value == "" {
		r.missing = append(r.missing, key)
	}
	return value
}

func (r *envReader) err() error {
	if len(r.missing) == 0 && len(r.invalid) == 0 {
		return nil
	}
	return &ConfigError{Keys: r.missing, Invalid: r.invalid}
}

func (r *envReader) sheet() SheetConfig {
	cfg := SheetConfig{
		SpreadsheetID:   r.required("SPREADSHEET_ID"),
		APIKey:          os.Getenv("GOOGLE_SHEETS_API_KEY"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		Endpoint:        os.Getenv("SHEETS_ENDPOINT"),
	}
	if cfg.APIKey == "" && cfg.CredentialsFile == "" {
		r.missing = append(r.missing, "GOOGLE_SHEETS_API_KEY or GOOGLE_CREDENTIALS_FILE")
	}
	return cfg
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadReportConfig reads the report job settings from the environment.
// layoutPath overrides LAYOUT_FILE when set.
func LoadReportConfig(layoutPath string) (*ReportConfig, error) {
	r := &envReader{}
	cfg := &ReportConfig{
		Sheet:       r.sheet(),
		SlackToken:  r.required("SLACK_TOKEN"),
		SlackAPIURL: os.Getenv("SLACK_API_URL"),
		Channels: processing.Channels{
			Primary:   r.required("SLACK_PRIMARY_CHANNEL"),
			Secondary: r.required("SLACK_SECONDARY_CHANNEL"),
			Fallback:  r.required("SLACK_FALLBACK_CHANNEL"),
		},
	}

	mode, err := processing.ParseBranchMode(os.Getenv("REPORT_BRANCH_MODE"))
	if err != nil {
		r.invalid = append(r.invalid, "REPORT_BRANCH_MODE: "+err.Error())
	}
	cfg.Mode = mode

	concurrency, err := strconv.Atoi(GetEnvWithDefault("FETCH_CONCURRENCY", "1"))
	if err != nil || concurrency < 1 {
		r.invalid = append(r.invalid, "FETCH_CONCURRENCY: must be a positive integer")
	}
	cfg.Concurrency = concurrency

	if err := r.err(); err != nil {
		return nil, err
	}

	layout, err := config.LoadLayout(layoutFile(layoutPath))
	if err != nil {
		return nil, err
	}
	cfg.Layout = layout.Report

	log.Debug().
		Str("spreadsheet_id", cfg.Sheet.SpreadsheetID).
		Str("mode", string(cfg.Mode)).
		Int("concurrency", cfg.Concurrency).
		Msg("Loaded report configuration")
	return cfg, nil
}

// LoadCardsConfig reads the card comment job settings from the environment.
func LoadCardsConfig(layoutPath string) (*CardsConfig, error) {
	r := &envReader{}
	cfg := &CardsConfig{
		Sheet:        r.sheet(),
		TrelloKey:    r.required("TRELLO_KEY"),
		TrelloToken:  r.required("TRELLO_TOKEN"),
		TrelloAPIURL: os.Getenv("TRELLO_API_URL"),
	}
	if err := r.err(); err != nil {
		return nil, err
	}

	layout, err := config.LoadLayout(layoutFile(layoutPath))
	if err != nil {
		return nil, err
	}
	cfg.Layout = layout.Cards

	log.Debug().
		Str("spreadsheet_id", cfg.Sheet.SpreadsheetID).
		Msg("Loaded cards configuration")
	return cfg, nil
}

func layoutFile(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("LAYOUT_FILE")
}

// NewSheetsClient creates the Google Sheets client for either job.
func NewSheetsClient(ctx context.Context, cfg SheetConfig) (*sheets.Client, error) {
	client, err := sheets.NewClient(ctx, sheets.Options{
		APIKey:          cfg.APIKey,
		CredentialsFile: cfg.CredentialsFile,
		Endpoint:        cfg.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return client, nil
}

// NewDispatcher wires the report job.
func NewDispatcher(ctx context.Context, cfg *ReportConfig, dryRun bool) (*processing.Dispatcher, error) {
	log.Debug().Msg("Initializing report clients")
	sheetsClient, err := NewSheetsClient(ctx, cfg.Sheet)
	if err != nil {
		return nil, err
	}

	return &processing.Dispatcher{
		Sheets:        sheetsClient,
		Poster:        notifications.NewClient(cfg.SlackToken, cfg.SlackAPIURL),
		SpreadsheetID: cfg.Sheet.SpreadsheetID,
		Layout:        cfg.Layout,
		Channels:      cfg.Channels,
		Mode:          cfg.Mode,
		Concurrency:   cfg.Concurrency,
		DryRun:        dryRun,
	}, nil
}

// NewUpserter wires the card comment job. The Trello client is returned too so
// the caller can report API call counts.
func NewUpserter(ctx context.Context, cfg *CardsConfig, dryRun bool) (*processing.Upserter, *trello.Client, error) {
	log.Debug().Msg("Initializing card comment clients")
	sheetsClient, err := NewSheetsClient(ctx, cfg.Sheet)
	if err != nil {
		return nil, nil, err
	}

	trelloClient := trello.NewClient(cfg.TrelloKey, cfg.TrelloToken, cfg.TrelloAPIURL)
	return &processing.Upserter{
		Sheets:        sheetsClient,
		Comments:      trelloClient,
		SpreadsheetID: cfg.Sheet.SpreadsheetID,
		Layout:        cfg.Layout,
		DryRun:        dryRun,
	}, trelloClient, nil
}
