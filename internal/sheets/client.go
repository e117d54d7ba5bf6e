package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Options selects how the Sheets service authenticates. APIKey is enough for
// sheets shared by link; CredentialsFile points at a service-account JSON.
type Options struct {
	APIKey          string
	CredentialsFile string
	Endpoint        string
	HTTPClient      *http.Client
}

type Client struct {
	service *sheets.Service
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	default:
		return nil, errors.New("sheets client needs an API key or a credentials file")
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
	}, nil
}

// FetchRange returns the raw value grid for range_ with every value stringified.
// An empty region yields an empty grid, not an error.
func (c *Client) FetchRange(ctx context.Context, spreadsheetID, range_ string) ([][]string, error) {
	log.Debug().Str("range", range_).Msg("Fetching sheet range")

	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, range_).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &FetchError{Range: range_, StatusCode: apiErr.Code, Body: apiErr.Body}
		}
		return nil, fmt.Errorf("failed to read range %s: %w", range_, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i := range row {
			cells[i] = extractStringField(row, i)
		}
		rows = append(rows, cells)
	}

	log.Debug().Str("range", range_).Int("rows", len(rows)).Msg("Retrieved sheet range")
	return rows, nil
}

// FetchCell returns the normalized text of the first cell in range_.
func (c *Client) FetchCell(ctx context.Context, spreadsheetID, range_ string) (string, error) {
	rows, err := c.FetchRange(ctx, spreadsheetID, range_)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return NormalizeCell(rows[0][0]), nil
}

// FetchColumn returns the first cell of every row in range_, "" where a row is empty.
func (c *Client) FetchColumn(ctx context.Context, spreadsheetID, range_ string) ([]string, error) {
	rows, err := c.FetchRange(ctx, spreadsheetID, range_)
	if err != nil {
		return nil, err
	}

	column := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			column[i] = row[0]
		}
	}
	return column, nil
}

// FetchCells fetches several single cells and returns them in the order of ranges.
// With concurrency above one the fetches run in parallel; the first error wins.
func (c *Client) FetchCells(ctx context.Context, spreadsheetID string, ranges []string, concurrency int) ([]string, error) {
	values := make([]string, len(ranges))
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, rng := range ranges {
		i, rng := i, rng // per-iteration copies; go directive is 1.21
		g.Go(func() error {
			value, err := c.FetchCell(gctx, spreadsheetID, rng)
			if err != nil {
				return err
			}
			values[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

// extractStringField safely extracts a string field from a row at the given index
func extractStringField(row []interface{}, index int) string {
	if len(row) > index && row[index] != nil {
		return fmt.Sprintf("%v", row[index])
	}
	return ""
}
