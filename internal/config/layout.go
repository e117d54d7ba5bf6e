package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout names the sheet cells and columns each job reads, in A1 notation.
type Layout struct {
	Report ReportLayout `yaml:"report"`
	Cards  CardsLayout  `yaml:"cards"`
}

type ReportLayout struct {
	FlagA          string   `yaml:"flag_a"`
	FlagB          string   `yaml:"flag_b"`
	FlagC          string   `yaml:"flag_c"` // read but never acted on
	PrimaryCells   []string `yaml:"primary_cells"`
	SecondaryCells []string `yaml:"secondary_cells"`
}

// CardsLayout holds five parallel column ranges. Row i of every column
// belongs to the card named in row i of CardIDs.
type CardsLayout struct {
	CardIDs        string `yaml:"card_ids"`
	ReviewDetail   string `yaml:"review_detail"`
	ReviewCount    string `yaml:"review_count"`
	CompleteCount  string `yaml:"complete_count"`
	CompleteDetail string `yaml:"complete_detail"`
}

func DefaultLayout() Layout {
	return Layout{
		Report: ReportLayout{
			FlagA:          "Report!A1",
			FlagB:          "Report!A2",
			FlagC:          "Report!A3",
			PrimaryCells:   []string{"Report!B1", "Report!B2", "Report!B3", "Report!B4", "Report!B5"},
			SecondaryCells: []string{"Report!C1", "Report!C2", "Report!C3", "Report!C4", "Report!C5"},
		},
		Cards: CardsLayout{
			CardIDs:        "Epics!A2:A",
			ReviewDetail:   "Epics!D2:D",
			ReviewCount:    "Epics!H2:H",
			CompleteCount:  "Epics!L2:L",
			CompleteDetail: "Epics!P2:P",
		},
	}
}

// LoadLayout returns DefaultLayout overridden by whatever keys the YAML file at
// path sets. An empty path means the defaults.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()
	if path == "" {
		return layout, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout file: %w", err)
	}
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout file %s: %w", path, err)
	}
	if err := layout.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout file %s: %w", path, err)
	}
	return layout, nil
}

func (l Layout) Validate() error {
	var errs []error
	required := []struct{ key, value string }{
		{"report.flag_a", l.Report.FlagA},
		{"report.flag_b", l.Report.FlagB},
		{"cards.card_ids", l.Cards.CardIDs},
		{"cards.review_detail", l.Cards.ReviewDetail},
		{"cards.review_count", l.Cards.ReviewCount},
		{"cards.complete_count", l.Cards.CompleteCount},
		{"cards.complete_detail", l.Cards.CompleteDetail},
	}
	for _, field := range required {
		if field.value == "" {
			errs = append(errs, fmt.Errorf("%s is empty", field.key))
		}
	}
	if len(l.Report.PrimaryCells) == 0 {
		errs = append(errs, errors.New("report.primary_cells is empty"))
	}
	if len(l.Report.SecondaryCells) == 0 {
		errs = append(errs, errors.New("report.secondary_cells is empty"))
	}
	return errors.Join(errs...)
}
