package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
)

const (
	summarySheet  = "summary"
	profilesSheet = "profiles"
	cfSheet       = "capacity_factors"
	demandSheet   = "demand_scaling"
)

// BuildProfilesXLSX renders the merged table plus the run diagnostics as a workbook.
func BuildProfilesXLSX(summary *application.RunSummary, rows []profiles.MergedRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, sheet := range []string{profilesSheet, cfSheet, demandSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	if summary != nil {
		_ = f.SetCellValue(summarySheet, "A1", "Hourly Profiles")
		_ = f.SetCellValue(summarySheet, "A3", "Run")
		_ = f.SetCellValue(summarySheet, "B3", summary.RunID)
		_ = f.SetCellValue(summarySheet, "A4", "Finished")
		_ = f.SetCellValue(summarySheet, "B4", summary.FinishedAt.Format(time.RFC3339))
		_ = f.SetCellValue(summarySheet, "A5", "Rows")
		_ = f.SetCellValue(summarySheet, "B5", summary.Rows)
		_ = f.SetCellValue(summarySheet, "A6", "First")
		_ = f.SetCellValue(summarySheet, "B6", summary.FirstKey.String())
		_ = f.SetCellValue(summarySheet, "A7", "Last")
		_ = f.SetCellValue(summarySheet, "B7", summary.LastKey.String())
		_ = f.SetCellValue(summarySheet, "A8", "Solar target CF")
		_ = f.SetCellValue(summarySheet, "B8", summary.Parameters.SolarCapacityFactor)
		_ = f.SetCellValue(summarySheet, "A9", "Wind target CF")
		_ = f.SetCellValue(summarySheet, "B9", summary.Parameters.WindCapacityFactor)
		_ = f.SetCellValue(summarySheet, "A10", "Cutover")
		_ = f.SetCellValue(summarySheet, "B10", summary.Parameters.Cutover.String())

		_ = f.SetCellValue(cfSheet, "A1", "Series")
		_ = f.SetCellValue(cfSheet, "B1", "Year")
		_ = f.SetCellValue(cfSheet, "C1", "Start")
		_ = f.SetCellValue(cfSheet, "D1", "End")
		_ = f.SetCellValue(cfSheet, "E1", "Hours")
		_ = f.SetCellValue(cfSheet, "F1", "Capacity factor")
		for i, stat := range summary.CapacityFactors {
			row := i + 2
			_ = f.SetCellValue(cfSheet, fmt.Sprintf("A%d", row), stat.Series)
			_ = f.SetCellValue(cfSheet, fmt.Sprintf("B%d", row), stat.Index)
			_ = f.SetCellValue(cfSheet, fmt.Sprintf("C%d", row), stat.StartKey.String())
			_ = f.SetCellValue(cfSheet, fmt.Sprintf("D%d", row), stat.EndKey.String())
			_ = f.SetCellValue(cfSheet, fmt.Sprintf("E%d", row), stat.Hours)
			_ = f.SetCellValue(cfSheet, fmt.Sprintf("F%d", row), stat.CapacityFactor)
		}

		_ = f.SetCellValue(demandSheet, "A1", "Year")
		_ = f.SetCellValue(demandSheet, "B1", "Start")
		_ = f.SetCellValue(demandSheet, "C1", "End")
		_ = f.SetCellValue(demandSheet, "D1", "Hours")
		_ = f.SetCellValue(demandSheet, "E1", "Average (MWh)")
		_ = f.SetCellValue(demandSheet, "F1", "Scale")
		for i, year := range summary.DemandYears {
			row := i + 2
			_ = f.SetCellValue(demandSheet, fmt.Sprintf("A%d", row), year.Index)
			_ = f.SetCellValue(demandSheet, fmt.Sprintf("B%d", row), year.StartKey.String())
			_ = f.SetCellValue(demandSheet, fmt.Sprintf("C%d", row), year.EndKey.String())
			_ = f.SetCellValue(demandSheet, fmt.Sprintf("D%d", row), year.Hours)
			_ = f.SetCellValue(demandSheet, fmt.Sprintf("E%d", row), year.Average)
			_ = f.SetCellValue(demandSheet, fmt.Sprintf("F%d", row), year.Scale)
		}
	}

	// The profiles sheet holds one row per hour, so it goes through the stream writer.
	sw, err := f.NewStreamWriter(profilesSheet)
	if err != nil {
		return nil, err
	}
	header := make([]interface{}, len(profiles.OutputHeader))
	for i, name := range profiles.OutputHeader {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, []interface{}{row.Key.String(), row.Demand, row.Solar, row.Wind}); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRunReportPDF renders the run summary with per-year diagnostics.
func BuildRunReportPDF(summary *application.RunSummary) ([]byte, error) {
	if summary == nil {
		return nil, application.ErrNoRun
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Hourly Profiles Run Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", summary.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Started: %s", summary.StartedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Finished: %s", summary.FinishedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rows: %d (%s to %s)", summary.Rows, summary.FirstKey, summary.LastKey))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Target CF: solar %.3f, wind %.3f", summary.Parameters.SolarCapacityFactor, summary.Parameters.WindCapacityFactor))
	pdf.Ln(5)
	if summary.Parameters.Cutover != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Cutover: %s", summary.Parameters.Cutover))
		pdf.Ln(5)
	}
	for _, input := range summary.Inputs {
		pdf.Cell(0, 6, fmt.Sprintf("Input %s: %d samples, %s to %s, forward-filled %d",
			input.Name, input.Samples, input.FirstKey, input.LastKey, summary.ForwardFilled[input.Name]))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Series", "1", 0, "C", false, 0, "")
	pdf.CellFormat(15, 6, "Year", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Hours", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Capacity factor", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, stat := range summary.CapacityFactors {
		pdf.CellFormat(25, 6, stat.Series, "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", stat.Index), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, stat.StartKey.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, stat.EndKey.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", stat.Hours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.4f", stat.CapacityFactor), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 6, "Year", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Hours", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Average (MWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Scale", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, year := range summary.DemandYears {
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", year.Index), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, year.StartKey.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, year.EndKey.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", year.Hours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", year.Average), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.4f", year.Scale), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
