package visit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dukerupert/walkin/internal/model"
)

const exportSheet = "Visitors"

var exportHeader = []any{
	"Confirmation Code", "Visitor", "Email", "Employee", "Walked In", "Walked Out", "Notes",
}

// ExportToday writes today's visitor log to w as an .xlsx workbook.
func (s *Service) ExportToday(ctx context.Context, w io.Writer) (int, error) {
	logs, err := s.backend.TodayVisitorLogs(ctx)
	if err != nil {
		return 0, err
	}
	if err := WriteWorkbook(w, logs); err != nil {
		return 0, err
	}
	s.logger.Info("visitor log exported", "rows", len(logs))
	return len(logs), nil
}

// WriteWorkbook renders logs as a single-sheet workbook.
func WriteWorkbook(w io.Writer, logs []model.VisitorLog) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, l := range logs {
		row := []any{
			l.ConfirmationCode,
			l.VisitorName,
			l.VisitorEmail,
			l.EmployeeName,
			formatTime(l.WalkedInAt),
			formatTime(l.WalkedOutAt),
			l.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "G", 20); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatTime(ts *model.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.Local().Format(time.DateTime)
}
