package processing

import (
	"context"
	"fmt"

	"sheet_relay/internal/sheets"
	"sheet_relay/internal/trello"
)

type fakeSheets struct {
	cells   map[string]string
	columns map[string][]string
	fail    map[string]error
	fetched []string
}

func (f *fakeSheets) FetchCells(ctx context.Context, spreadsheetID string, ranges []string, concurrency int) ([]string, error) {
	values := make([]string, len(ranges))
	for i, rng := range ranges {
		f.fetched = append(f.fetched, rng)
		if err := f.fail[rng]; err != nil {
			return nil, err
		}
		values[i] = f.cells[rng]
	}
	return values, nil
}

func (f *fakeSheets) FetchColumn(ctx context.Context, spreadsheetID, range_ string) ([]string, error) {
	f.fetched = append(f.fetched, range_)
	if err := f.fail[range_]; err != nil {
		return nil, err
	}
	return f.columns[range_], nil
}

type sentMessage struct {
	Channel string
	Text    string
}

type fakePoster struct {
	sent []sentMessage
	fail map[string]error
}

func (f *fakePoster) PostMessage(ctx context.Context, channel, text string) error {
	f.sent = append(f.sent, sentMessage{Channel: channel, Text: text})
	return f.fail[channel]
}

type commentCall struct {
	Op        string
	CardID    string
	CommentID string
	Text      string
}

type fakeComments struct {
	actions map[string][]trello.Action
	fail    map[string]error // keyed by "op:cardID"
	calls   []commentCall
	nextID  int
}

func (f *fakeComments) ListComments(ctx context.Context, cardID string) ([]trello.Action, error) {
	f.calls = append(f.calls, commentCall{Op: "list", CardID: cardID})
	if err := f.fail["list:"+cardID]; err != nil {
		return nil, err
	}
	return f.actions[cardID], nil
}

func (f *fakeComments) CreateComment(ctx context.Context, cardID, text string) (*trello.Action, error) {
	f.calls = append(f.calls, commentCall{Op: "create", CardID: cardID, Text: text})
	if err := f.fail["create:"+cardID]; err != nil {
		return nil, err
	}
	f.nextID++
	return &trello.Action{ID: fmt.Sprintf("new%d", f.nextID)}, nil
}

func (f *fakeComments) UpdateComment(ctx context.Context, cardID, commentID, text string) (*trello.Action, error) {
	f.calls = append(f.calls, commentCall{Op: "update", CardID: cardID, CommentID: commentID, Text: text})
	if err := f.fail["update:"+cardID]; err != nil {
		return nil, err
	}
	return &trello.Action{ID: commentID}, nil
}

func (f *fakeComments) callsFor(cardID string) []commentCall {
	var out []commentCall
	for _, c := range f.calls {
		if c.CardID == cardID {
			out = append(out, c)
		}
	}
	return out
}

var fetchDenied = &sheets.FetchError{Range: "Report!B3", StatusCode: 403, Body: "denied"}
