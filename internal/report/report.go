// Package report renders rankings for people: json dumps, spreadsheets and grouped summaries.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/talent-matcher/internal/recommend"
)

const (
	sheetName     = "Ranking"
	uncategorized = "uncategorized"
)

var header = []interface{}{
	"Rank", "Vacancy ID", "Title", "Category", "Urgency",
	"Skills", "Experience", "Salary", "Location", "Score",
}

func DumpToTmpFile(recs []recommend.Recommendation) (string, error) {
	file, err := os.CreateTemp("", "recommendations_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// WriteXLSX saves the ranking as a single-sheet workbook, one row per recommendation.
func WriteXLSX(path string, recs []recommend.Recommendation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			rec.Rank,
			rec.Vacancy.ID,
			rec.Vacancy.Title,
			rec.Vacancy.Category,
			string(rec.Vacancy.EffectiveUrgency()),
			rec.Breakdown.Skills,
			rec.Breakdown.Experience,
			rec.Breakdown.Salary,
			rec.Breakdown.Location,
			rec.Score,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// ByCategory groups the ranking by vacancy category, keeping rank order inside each group.
func ByCategory(recs []recommend.Recommendation) map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, rec := range recs {
		key := strings.TrimSpace(rec.Vacancy.Category)
		if key == "" {
			key = uncategorized
		}
		report[key] = append(report[key], map[string]string{
			"rank":       strconv.Itoa(rec.Rank),
			"id":         rec.Vacancy.ID,
			"title":      rec.Vacancy.Title,
			"urgency":    string(rec.Vacancy.EffectiveUrgency()),
			"score":      formatScore(rec.Score),
			"skills":     formatScore(rec.Breakdown.Skills),
			"experience": formatScore(rec.Breakdown.Experience),
			"salary":     formatScore(rec.Breakdown.Salary),
			"location":   formatScore(rec.Breakdown.Location),
		})
	}
	return report
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
