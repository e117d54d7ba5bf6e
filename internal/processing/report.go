package processing

import (
	"context"
	"fmt"
	"strings"

	"sheet_relay/internal/config"
	"sheet_relay/internal/sheets"

	"github.com/rs/zerolog/log"
)

// FallbackMessage is posted when no destination checkbox is ticked.
const FallbackMessage = "Please choose a report destination"

// BranchMode decides what happens when both destination flags are ticked.
type BranchMode string

const (
	// BranchExclusive posts only the first ticked branch (A before B).
	BranchExclusive BranchMode = "exclusive"
	// BranchAll posts every ticked branch.
	BranchAll BranchMode = "all"
)

func ParseBranchMode(value string) (BranchMode, error) {
	switch BranchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", BranchExclusive:
		return BranchExclusive, nil
	case BranchAll:
		return BranchAll, nil
	default:
		return "", fmt.Errorf("unknown branch mode %q (want %q or %q)", value, BranchExclusive, BranchAll)
	}
}

type Channels struct {
	Primary   string
	Secondary string
	Fallback  string
}

// Post records one outward message of a report run.
type Post struct {
	Branch  string
	Channel string
	Text    string
	DryRun  bool
	Err     error
}

type ReportResult struct {
	FlagA bool
	FlagB bool
	FlagC bool
	Posts []Post
}

// Failed returns the number of posts Slack did not accept.
func (r *ReportResult) Failed() int {
	failed := 0
	for _, p := range r.Posts {
		if p.Err != nil {
			failed++
		}
	}
	return failed
}

// Dispatcher reads the report sheet and posts the composed report to the
// channel selected by the checkbox flags.
type Dispatcher struct {
	Sheets        SheetReader
	Poster        MessagePoster
	SpreadsheetID string
	Layout        config.ReportLayout
	Channels      Channels
	Mode          BranchMode
	Concurrency   int
	DryRun        bool
}

// Run performs one report dispatch. Any sheet fetch error aborts the run and
// is returned; delivery errors are logged and recorded in the result.
func (d *Dispatcher) Run(ctx context.Context) (*ReportResult, error) {
	log.Debug().Msg("Starting report dispatch")

	flags, err := d.Sheets.FetchCells(ctx, d.SpreadsheetID, d.flagRanges(), d.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to read report flags: %w", err)
	}

	result := &ReportResult{
		FlagA: sheets.IsTrue(flags[0]),
		FlagB: sheets.IsTrue(flags[1]),
	}
	if len(flags) > 2 {
		result.FlagC = sheets.IsTrue(flags[2])
	}

	log.Info().
		Bool("flag_a", result.FlagA).
		Bool("flag_b", result.FlagB).
		Bool("flag_c", result.FlagC).
		Str("mode", string(d.Mode)).
		Msg("Read report flags")

	if result.FlagA {
		if err := d.sendBranch(ctx, result, "primary", d.Layout.PrimaryCells, d.Channels.Primary); err != nil {
			return result, err
		}
	}

	if result.FlagB && (!result.FlagA || d.Mode == BranchAll) {
		if err := d.sendBranch(ctx, result, "secondary", d.Layout.SecondaryCells, d.Channels.Secondary); err != nil {
			return result, err
		}
	} else if result.FlagB {
		log.Info().Msg("Secondary flag ignored, primary branch already posted")
	}

	if !result.FlagA && !result.FlagB {
		d.deliver(ctx, result, "fallback", d.Channels.Fallback, FallbackMessage)
	}

	log.Debug().
		Int("posts", len(result.Posts)).
		Int("failed", result.Failed()).
		Msg("Finished report dispatch")
	return result, nil
}

func (d *Dispatcher) flagRanges() []string {
	ranges := []string{d.Layout.FlagA, d.Layout.FlagB}
	if d.Layout.FlagC != "" {
		ranges = append(ranges, d.Layout.FlagC)
	}
	return ranges
}

// sendBranch fetches the branch's text cells and posts their concatenation.
func (d *Dispatcher) sendBranch(ctx context.Context, result *ReportResult, branch string, cells []string, channel string) error {
	parts, err := d.Sheets.FetchCells(ctx, d.SpreadsheetID, cells, d.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to read %s report cells: %w", branch, err)
	}

	d.deliver(ctx, result, branch, channel, ComposeMessage(parts))
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, result *ReportResult, branch, channel, text string) {
	post := Post{Branch: branch, Channel: channel, Text: text, DryRun: d.DryRun}

	if d.DryRun {
		log.Info().
			Str("branch", branch).
			Str("channel", channel).
			Str("text", text).
			Msg("Dry run, not posting report")
		result.Posts = append(result.Posts, post)
		return
	}

	if err := d.Poster.PostMessage(ctx, channel, text); err != nil {
		log.Error().
			Err(err).
			Str("branch", branch).
			Str("channel", channel).
			Msg("Failed to post report")
		post.Err = err
	} else {
		log.Info().
			Str("branch", branch).
			Str("channel", channel).
			Msg("Posted report")
	}
	result.Posts = append(result.Posts, post)
}

// ComposeMessage joins report cells in order with no separator and no trimming.
func ComposeMessage(parts []string) string {
	return strings.Join(parts, "")
}
