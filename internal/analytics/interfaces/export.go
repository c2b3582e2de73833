package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/4prathamesh/Energy-Ingestion-Engine/internal/analytics/application"
)

var exportHeader = []string{
	"Vehicle", "AC Consumed (kWh)", "DC Delivered (kWh)", "Efficiency (%)",
	"Avg Battery Temp", "Data Points", "Window Start", "Window End",
}

// BuildPerformanceCSV renders fleet performance reports as CSV.
func BuildPerformanceCSV(reports []application.PerformanceReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, report := range reports {
		record := []string{
			report.VehicleID,
			strconv.FormatFloat(report.TotalEnergyConsumedAc, 'f', 2, 64),
			strconv.FormatFloat(report.TotalEnergyDeliveredDc, 'f', 2, 64),
			strconv.FormatFloat(report.EfficiencyRatio, 'f', 2, 64),
			strconv.FormatFloat(report.AverageBatteryTemp, 'f', 2, 64),
			strconv.FormatInt(report.DataPoints, 10),
			report.TimeWindowStart.Format(time.RFC3339),
			report.TimeWindowEnd.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPerformanceXLSX renders fleet performance reports as a workbook.
func BuildPerformanceXLSX(reports []application.PerformanceReport) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "performance"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, title)
	}

	for i, report := range reports {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), report.VehicleID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), report.TotalEnergyConsumedAc)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), report.TotalEnergyDeliveredDc)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), report.EfficiencyRatio)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), report.AverageBatteryTemp)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), report.DataPoints)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), report.TimeWindowStart.Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), report.TimeWindowEnd.Format(time.RFC3339))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPerformancePDF renders a minimal PDF fleet performance summary.
func BuildPerformancePDF(reports []application.PerformanceReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Fleet Performance Report (trailing 24h)")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	widths := []float64{45, 32, 32, 28, 32, 26, 40, 40}
	for i, title := range exportHeader {
		pdf.CellFormat(widths[i], 6, title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, report := range reports {
		pdf.CellFormat(widths[0], 6, report.VehicleID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.2f", report.TotalEnergyConsumedAc), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.2f", report.TotalEnergyDeliveredDc), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%.2f", report.EfficiencyRatio), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", report.AverageBatteryTemp), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, strconv.FormatInt(report.DataPoints, 10), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, report.TimeWindowStart.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[7], 6, report.TimeWindowEnd.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
