// Package report exports day availability and waitlist fill audits to Excel.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"velora/internal/models"
)

// FillRecord is one waitlist fill audit row.
type FillRecord struct {
	SpecialistID       string
	CancelledBookingID string
	Reason             string
	EntryID            string
	BookingID          string
	Skipped            int
	At                 time.Time
}

// DayReport collects what goes into one exported workbook.
type DayReport struct {
	Date         time.Time
	SpecialistID string
	Slots        []models.Slot
	Fills        []FillRecord
}

// Write renders the report as an xlsx workbook with an Availability sheet
// and a Waitlist sheet.
func (r DayReport) Write(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, "Availability", true,
		[]string{"Date", "Specialist", "Slot Start", "Slot End"},
		len(r.Slots),
		func(i int) []interface{} {
			s := r.Slots[i]
			return []interface{}{
				r.Date.Format(models.DateKey),
				r.SpecialistID,
				s.StartTime.Format("15:04"),
				s.EndTime.Format("15:04"),
			}
		},
	); err != nil {
		return err
	}

	if err := writeSheet(f, "Waitlist", false,
		[]string{"At", "Cancelled Booking", "Reason", "Entry", "Replacement Booking", "Skipped"},
		len(r.Fills),
		func(i int) []interface{} {
			fr := r.Fills[i]
			return []interface{}{
				fr.At.Format(time.RFC3339),
				fr.CancelledBookingID,
				fr.Reason,
				fr.EntryID,
				fr.BookingID,
				fr.Skipped,
			}
		},
	); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, name string, first bool, header []string, rows int, row func(i int) []interface{}) error {
	if first {
		f.SetSheetName("Sheet1", name)
	} else {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := setRow(f, name, 1, toAny(header)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(name, startCell, endCell, style)
	}

	for i := 0; i < rows; i++ {
		if err := setRow(f, name, i+2, row(i)); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	for col, val := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func toAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
