// ABOUTME: Export of the selected or loaded principals as CSV, JSON or XLSX
// ABOUTME: CSV and XLSX share one column layout; JSON carries full records
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/crmactivity/models"
	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv, json or xlsx)", s)
	}
}

// ExportColumns is the header row of tabular exports.
var ExportColumns = []string{
	"Principal Name",
	"Organization Type",
	"Activity Status",
	"Engagement Score",
	"Total Interactions",
	"Total Opportunities",
	"Won Opportunities",
	"Follow-ups Required",
	"Last Interaction Date",
	"Next Follow-up Date",
	"Primary Contact",
}

const exportSheet = "Principals"

// ExportRecords returns what an export covers: the selected principals on
// the loaded page, or the whole page when nothing is selected.
func (s *Store) ExportRecords() []models.ActivityRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.selection.ids()
	if len(ids) == 0 {
		return append([]models.ActivityRecord(nil), s.principals...)
	}
	out := make([]models.ActivityRecord, 0, len(ids))
	for _, r := range s.principals {
		if s.selection.has(r.PrincipalID) {
			out = append(out, r)
		}
	}
	return out
}

// Export writes the export records to w in format.
func (s *Store) Export(w io.Writer, format Format) error {
	return WriteRecords(w, format, s.ExportRecords())
}

// WriteRecords writes records to w in format.
func WriteRecords(w io.Writer, format Format, records []models.ActivityRecord) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, records)
	case FormatJSON:
		return writeJSON(w, records)
	case FormatXLSX:
		return writeXLSX(w, records)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func exportRow(r models.ActivityRecord) []string {
	return []string{
		r.PrincipalName,
		r.OrganizationType,
		string(r.ActivityStatus),
		strconv.FormatFloat(r.EngagementScore, 'f', -1, 64),
		strconv.Itoa(r.TotalInteractions),
		strconv.Itoa(r.TotalOpportunities),
		strconv.Itoa(r.WonOpportunities),
		strconv.Itoa(r.FollowUpsRequired),
		formatDate(r.LastInteractionDate),
		formatDate(r.NextFollowUpDate),
		r.PrimaryContactName,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func writeCSV(w io.Writer, records []models.ActivityRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ExportColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := writer.Write(exportRow(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, records []models.ActivityRecord) error {
	if records == nil {
		records = []models.ActivityRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeXLSX(w io.Writer, records []models.ActivityRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write XLSX header: %w", err)
	}

	for i, r := range records {
		row := []any{
			r.PrincipalName,
			r.OrganizationType,
			string(r.ActivityStatus),
			r.EngagementScore,
			r.TotalInteractions,
			r.TotalOpportunities,
			r.WonOpportunities,
			r.FollowUpsRequired,
			formatDate(r.LastInteractionDate),
			formatDate(r.NextFollowUpDate),
			r.PrimaryContactName,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write XLSX row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to generate Excel file: %w", err)
	}
	return nil
}
