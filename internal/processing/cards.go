package processing

import (
	"context"
	"fmt"

	"sheet_relay/internal/config"
	"sheet_relay/internal/trello"

	"github.com/rs/zerolog/log"
)

// CardRow is one sheet row of the epics table: the card it belongs to and the
// four values summarised in its comment.
type CardRow struct {
	Index          int
	CardID         string
	ReviewDetail   string
	ReviewCount    string
	CompleteCount  string
	CompleteDetail string
}

// Comment renders the summary comment posted on the row's card.
func (r CardRow) Comment() string {
	return fmt.Sprintf("User Stories in Review: %s (%s)\nUser Stories Complete: %s (%s)",
		r.ReviewCount, r.ReviewDetail, r.CompleteCount, r.CompleteDetail)
}

// skipReason returns why a row produces no comment, or "" if it should be sent.
func (r CardRow) skipReason() string {
	if r.CardID == "" {
		return "missing card id"
	}
	if r.ReviewDetail == "" && r.ReviewCount == "" && r.CompleteCount == "" && r.CompleteDetail == "" {
		return "no values"
	}
	return ""
}

// BuildCardRows zips the parallel columns by row index. The identifier column
// decides the row count; shorter value columns read as "".
func BuildCardRows(cardIDs, reviewDetail, reviewCount, completeCount, completeDetail []string) []CardRow {
	rows := make([]CardRow, 0, len(cardIDs))
	for i, id := range cardIDs {
		rows = append(rows, CardRow{
			Index:          i,
			CardID:         id,
			ReviewDetail:   valueAt(reviewDetail, i),
			ReviewCount:    valueAt(reviewCount, i),
			CompleteCount:  valueAt(completeCount, i),
			CompleteDetail: valueAt(completeDetail, i),
		})
	}
	return rows
}

func valueAt(column []string, index int) string {
	if index < len(column) {
		return column[index]
	}
	return ""
}

// FindComment returns the id of the first action whose text equals text exactly.
func FindComment(actions []trello.Action, text string) (string, bool) {
	for _, action := range actions {
		if action.Data.Text == text {
			return action.ID, true
		}
	}
	return "", false
}

type UpsertResult struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Upserter keeps one summary comment per card in sync with the epics sheet.
type Upserter struct {
	Sheets        SheetReader
	Comments      CommentStore
	SpreadsheetID string
	Layout        config.CardsLayout
	DryRun        bool
}

// Run reads the epics columns and upserts a comment for every usable row. A
// sheet fetch error aborts the run; a failure on one card is logged and the
// run moves on to the next row.
func (u *Upserter) Run(ctx context.Context) (*UpsertResult, error) {
	log.Debug().Msg("Starting card comment upsert")

	ranges := []string{
		u.Layout.CardIDs,
		u.Layout.ReviewDetail,
		u.Layout.ReviewCount,
		u.Layout.CompleteCount,
		u.Layout.CompleteDetail,
	}
	columns := make([][]string, len(ranges))
	for i, rng := range ranges {
		column, err := u.Sheets.FetchColumn(ctx, u.SpreadsheetID, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to read column %s: %w", rng, err)
		}
		columns[i] = column
	}

	rows := BuildCardRows(columns[0], columns[1], columns[2], columns[3], columns[4])
	log.Debug().Int("rows", len(rows)).Msg("Built card rows")

	result := &UpsertResult{}
	for _, row := range rows {
		if reason := row.skipReason(); reason != "" {
			log.Debug().
				Int("index", row.Index).
				Str("card_id", row.CardID).
				Str("reason", reason).
				Msg("Skipping row")
			result.Skipped++
			continue
		}

		updated, err := u.upsertRow(ctx, row)
		switch {
		case err != nil:
			log.Error().
				Err(err).
				Int("index", row.Index).
				Str("card_id", row.CardID).
				Msg("Failed to upsert card comment")
			result.Failed++
		case updated:
			result.Updated++
		default:
			result.Created++
		}
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Card comment upsert complete")
	return result, nil
}

// upsertRow updates the card comment matching the row's text, or creates one.
// It reports whether an existing comment was updated.
func (u *Upserter) upsertRow(ctx context.Context, row CardRow) (bool, error) {
	text := row.Comment()

	actions, err := u.Comments.ListComments(ctx, row.CardID)
	if err != nil {
		return false, fmt.Errorf("failed to list comments: %w", err)
	}

	commentID, found := FindComment(actions, text)

	if u.DryRun {
		log.Info().
			Str("card_id", row.CardID).
			Bool("existing", found).
			Str("text", text).
			Msg("Dry run, not writing card comment")
		return found, nil
	}

	if found {
		if _, err := u.Comments.UpdateComment(ctx, row.CardID, commentID, text); err != nil {
			return false, fmt.Errorf("failed to update comment %s: %w", commentID, err)
		}
		log.Info().
			Str("card_id", row.CardID).
			Str("comment_id", commentID).
			Msg("Updated existing card comment")
		return true, nil
	}

	action, err := u.Comments.CreateComment(ctx, row.CardID, text)
	if err != nil {
		return false, fmt.Errorf("failed to create comment: %w", err)
	}
	log.Info().
		Str("card_id", row.CardID).
		Str("comment_id", action.ID).
		Msg("Added card comment")
	return false, nil
}
