package processing

import (
	"context"

	"sheet_relay/internal/trello"
)

// SheetReader is the subset of *sheets.Client the jobs read through.
type SheetReader interface {
	FetchCells(ctx context.Context, spreadsheetID string, ranges []string, concurrency int) ([]string, error)
	FetchColumn(ctx context.Context, spreadsheetID, range_ string) ([]string, error)
}

// MessagePoster delivers a text message to a chat channel.
type MessagePoster interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// CommentStore lists, creates and updates comments on board cards.
type CommentStore interface {
	ListComments(ctx context.Context, cardID string) ([]trello.Action, error)
	CreateComment(ctx context.Context, cardID, text string) (*trello.Action, error)
	UpdateComment(ctx context.Context, cardID, commentID, text string) (*trello.Action, error)
}
