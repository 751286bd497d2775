package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	allocation "hostledger/internal/allocation/domain"
	"hostledger/internal/money"
)

// BuildReportPDF renders a monthly profit report as PDF.
func BuildReportPDF(report allocation.MonthlyReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Monthly Profit Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Property: %s", report.PropertyID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", report.Month.Format("2006-01")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Bookings: %d", len(report.Allocations)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Electricity: %d Wh, %s", report.ElectricityWh, money.FormatCents(report.ElectricityCostCents)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Cleaning: %s", money.FormatCents(report.CleaningCostCents)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fixed: %s", money.FormatCents(report.FixedCostCents)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Cost: %s", money.FormatCents(report.TotalCostCents)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Profit: %s", money.FormatCents(report.ProfitCents)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(45, 6, "Booking", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Checkout", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Energy (Wh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Cost", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Profit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Margin %", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, a := range report.Allocations {
		pdf.CellFormat(45, 6, a.BookingID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, a.CheckoutAt.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, strconv.FormatInt(a.ElectricityWh, 10), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, money.FormatCents(a.TotalCostCents), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, money.FormatCents(a.ProfitCents), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", a.MarginPercent), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a monthly profit report as XLSX.
func BuildReportXLSX(report allocation.MonthlyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	bookingsSheet := "bookings"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(bookingsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Monthly Profit Report")
	_ = f.SetCellValue(summarySheet, "A3", "Property")
	_ = f.SetCellValue(summarySheet, "B3", report.PropertyID)
	_ = f.SetCellValue(summarySheet, "A4", "Month")
	_ = f.SetCellValue(summarySheet, "B4", report.Month.Format("2006-01"))
	_ = f.SetCellValue(summarySheet, "A5", "Bookings")
	_ = f.SetCellValue(summarySheet, "B5", len(report.Allocations))
	_ = f.SetCellValue(summarySheet, "A6", "Electricity (Wh)")
	_ = f.SetCellValue(summarySheet, "B6", report.ElectricityWh)
	_ = f.SetCellValue(summarySheet, "A7", "Electricity Cost")
	_ = f.SetCellValue(summarySheet, "B7", money.FormatCents(report.ElectricityCostCents))
	_ = f.SetCellValue(summarySheet, "A8", "Cleaning Cost")
	_ = f.SetCellValue(summarySheet, "B8", money.FormatCents(report.CleaningCostCents))
	_ = f.SetCellValue(summarySheet, "A9", "Fixed Cost")
	_ = f.SetCellValue(summarySheet, "B9", money.FormatCents(report.FixedCostCents))
	_ = f.SetCellValue(summarySheet, "A10", "Total Cost")
	_ = f.SetCellValue(summarySheet, "B10", money.FormatCents(report.TotalCostCents))
	_ = f.SetCellValue(summarySheet, "A11", "Profit")
	_ = f.SetCellValue(summarySheet, "B11", money.FormatCents(report.ProfitCents))

	for i, header := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(bookingsSheet, cell, header)
	}
	for i, a := range report.Allocations {
		for j, value := range reportRow(a) {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(bookingsSheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReportCSV writes one line per allocation.
func WriteReportCSV(w io.Writer, report allocation.MonthlyReport) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(reportColumns); err != nil {
		return err
	}
	for _, a := range report.Allocations {
		if err := writer.Write(reportRow(a)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var reportColumns = []string{
	"booking_id",
	"property_id",
	"checkout_at",
	"electricity_wh",
	"electricity_cost",
	"cleaning_cost",
	"fixed_cost",
	"total_cost",
	"profit",
	"margin_percent",
	"allocated_at",
}

func reportRow(a allocation.CostAllocation) []string {
	return []string{
		a.BookingID,
		a.PropertyID,
		a.CheckoutAt.UTC().Format(time.RFC3339),
		strconv.FormatInt(a.ElectricityWh, 10),
		money.FormatCents(a.ElectricityCostCents),
		money.FormatCents(a.CleaningCostCents),
		money.FormatCents(a.FixedCostCents),
		money.FormatCents(a.TotalCostCents),
		money.FormatCents(a.ProfitCents),
		strconv.FormatFloat(a.MarginPercent, 'f', 1, 64),
		a.AllocatedAt.UTC().Format(time.RFC3339),
	}
}
