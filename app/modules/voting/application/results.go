package votingservice

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/xuri/excelize/v2"

	votedb "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/repositories"
)

func categoriesInOrder() []string {
	slugs := make([]string, len(votedb.AwardCategories))
	for i, category := range votedb.AwardCategories {
		slugs[i] = string(category)
	}
	return slugs
}

// categoryLabel turns an award category slug into a display label.
func categoryLabel(category string) string {
	words := strings.Split(category, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// ExportResults builds an xlsx workbook with a winners sheet and a raw
// per-photo tally sheet.
func (e *Engine) ExportResults(ctx context.Context, eventID uuid.UUID) ([]byte, error) {
	winners, err := e.ComputeWinners(ctx, eventID)
	if err != nil {
		return nil, err
	}
	tallies, err := e.voteDB.TallyByCategory(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("tallying votes: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const winnersSheet = "Winners"
	if err := f.SetSheetName("Sheet1", winnersSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}

	header := []any{"Category", "Votes", "Winning Photos"}
	if err := f.SetSheetRow(winnersSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, category := range winners {
		ids := make([]string, len(category.Winners))
		for j, id := range category.Winners {
			ids[j] = id.String()
		}
		row := []any{
			categoryLabel(string(category.Category)),
			category.VoteCount,
			strings.Join(ids, ", "),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(winnersSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing winners row: %w", err)
		}
	}

	const talliesSheet = "Votes"
	if _, err := f.NewSheet(talliesSheet); err != nil {
		return nil, fmt.Errorf("creating tally sheet: %w", err)
	}
	tallyHeader := []any{"Category", "Photo", "Votes"}
	if err := f.SetSheetRow(talliesSheet, "A1", &tallyHeader); err != nil {
		return nil, fmt.Errorf("writing tally header: %w", err)
	}
	for i, tally := range tallies {
		row := []any{
			categoryLabel(string(tally.Category)),
			tally.PhotoID.String(),
			tally.Count,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(talliesSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing tally row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderResultsChart renders a PNG bar chart of total votes per category.
// Categories without votes are omitted, matching ComputeWinners.
func (e *Engine) RenderResultsChart(ctx context.Context, eventID uuid.UUID) ([]byte, error) {
	tallies, err := e.voteDB.TallyByCategory(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("tallying votes: %w", err)
	}

	totals := make(map[string]int)
	for _, tally := range tallies {
		totals[string(tally.Category)] += tally.Count
	}

	var bars []chart.Value
	for _, category := range categoriesInOrder() {
		total, ok := totals[category]
		if !ok {
			continue
		}
		bars = append(bars, chart.Value{
			Label: categoryLabel(category),
			Value: float64(total),
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no votes recorded for event %s", eventID)
	}

	graph := chart.BarChart{
		Title:    "Votes per Category",
		Width:    1024,
		Height:   512,
		BarWidth: 50,
		Bars:     bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	return buf.Bytes(), nil
}
