// Package export renders registrations as an XLSX spreadsheet.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/iedc-snmimt/iedc-site/internal/models"
)

// SheetName is the name of the single worksheet in every export.
const SheetName = "Registrations"

// Columns is the fixed header row of an export.
var Columns = []string{
	"Registration ID",
	"Event ID",
	"Event Title",
	"Name",
	"Email",
	"Phone",
	"Department",
	"Year",
	"Message",
	"Registration Date",
	"Status",
}

// Source supplies the registrations to export.
type Source interface {
	Registrations(ctx context.Context, eventID *int) ([]models.Registration, error)
}

type Exporter struct {
	source Source
	prefix string
}

func NewExporter(source Source, prefix string) *Exporter {
	return &Exporter{source: source, prefix: prefix}
}

// Export builds the spreadsheet for all registrations, or for one event when
// eventID is set. It returns models.ErrNoRegistrations when nothing matches.
func (x *Exporter) Export(ctx context.Context, eventID *int) (*bytes.Buffer, error) {
	regs, err := x.source.Registrations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return nil, models.ErrNoRegistrations
	}
	return Render(regs)
}

// Render writes regs into a one-sheet workbook with a bold header row and
// columns wide enough for their longest value, up to the widest column a
// sheet allows.
func Render(regs []models.Registration) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(Columns))
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
		widths[i] = utf8.RuneCountInString(c)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range regs {
		row := Row(r)
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
			widths[j] = max(widths[j], utf8.RuneCountInString(fmt.Sprint(v)))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, min(float64(w+2), excelize.MaxColumnWidth)); err != nil {
			return nil, fmt.Errorf("size column %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// Row projects a registration onto Columns.
func Row(r models.Registration) []any {
	return []any{
		r.ID,
		r.EventID,
		r.EventTitle,
		r.Name,
		r.Email,
		r.Phone,
		r.Department,
		r.Year,
		r.Message,
		r.Timestamp,
		string(r.Status),
	}
}

const fileTimeLayout = "20060102_150405"

// AllFilename is the download name for an export of every registration.
func (x *Exporter) AllFilename(now time.Time) string {
	return fmt.Sprintf("%s_All_Registrations_%s.xlsx", x.prefix, now.Format(fileTimeLayout))
}

// EventFilename is the download name for an export of one event.
func (x *Exporter) EventFilename(title string, now time.Time) string {
	return fmt.Sprintf("%s_%s_Registrations_%s.xlsx", x.prefix, strings.ReplaceAll(title, " ", "_"), now.Format(fileTimeLayout))
}
