package report

import (
	"bytes"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Attendance"

var exportHeaders = []string{
	"Session ID", "Partner", "Partner Email", "Location",
	"Check-In", "Check-Out", "Auto Checkout", "Distance (m)",
}

// BuildWorkbook renders the entries as a single-sheet xlsx workbook.
func BuildWorkbook(entries []Entry) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
	}

	for i, entry := range entries {
		row := i + 2
		values := []any{
			entry.ID,
			exportPartnerName(entry.Partner),
			exportPartnerEmail(entry.Partner),
			exportLocationName(entry.Location),
			entry.CheckInTime.Format(time.RFC3339),
			exportCheckOut(entry.CheckOutTime),
			entry.AutoCheckout,
			entry.DistanceCoveredM,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f.WriteToBuffer()
}

func exportPartnerName(p *Partner) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func exportPartnerEmail(p *Partner) string {
	if p == nil {
		return ""
	}
	return p.Email
}

func exportLocationName(l *Location) string {
	if l == nil {
		return ""
	}
	return l.Name
}

func exportCheckOut(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
