package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/nestora/studio-api/internal/models"
	"github.com/xuri/excelize/v2"
)

// ExportService renders schedules and invoices into downloadable documents
type ExportService struct {
	scheduleSvc *ScheduleService
	invoiceSvc  *InvoiceService
}

// NewExportService creates a new export service
func NewExportService(scheduleSvc *ScheduleService, invoiceSvc *InvoiceService) *ExportService {
	return &ExportService{scheduleSvc: scheduleSvc, invoiceSvc: invoiceSvc}
}

// ScheduleCSV renders a project's payment schedule as CSV
func (s *ExportService) ScheduleCSV(ctx context.Context, projectID uint) ([]byte, string, error) {
	session, err := s.scheduleSvc.LoadSession(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	project := session.Project()

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Payment Schedule", project.Name, time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Week", "Percentage", "Amount", "Invoice Date", "Due Date", "Status", "Paid"})

	for _, w := range session.Weeks() {
		label := fmt.Sprintf("%d", w.WeekNo)
		if w.IsSignupWeek {
			label = "Signup"
		}
		_ = writer.Write([]string{
			label,
			fmt.Sprintf("%.2f%%", w.Percentage),
			fmt.Sprintf("%.2f", w.ScheduledAmount(project.TotalCost)),
			w.InvoiceDate.Format("2006-01-02"),
			w.DueDate.Format("2006-01-02"),
			w.Status,
			fmt.Sprintf("%.2f", w.PaidAmount),
		})
	}
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Total", fmt.Sprintf("%.2f%%", session.TotalPercentage())})

	writer.Flush()

	filename := fmt.Sprintf("schedule_%d_%s.csv", projectID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ScheduleXLSX renders a project's payment schedule as a spreadsheet
func (s *ExportService) ScheduleXLSX(ctx context.Context, projectID uint) ([]byte, string, error) {
	session, err := s.scheduleSvc.LoadSession(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	project := session.Project()

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Schedule"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Payment Schedule - %s", project.Name))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "A2", "Client")
	_ = f.SetCellValue(sheet, "B2", project.ClientName)
	_ = f.SetCellValue(sheet, "A3", "Total Cost")
	_ = f.SetCellValue(sheet, "B3", project.TotalCost)

	headers := []string{"Week", "Percentage", "Amount", "Invoice Date", "Due Date", "Status", "Paid"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	row := 6
	for _, w := range session.Weeks() {
		label := any(w.WeekNo)
		if w.IsSignupWeek {
			label = "Signup"
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), w.Percentage)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), w.ScheduledAmount(project.TotalCost))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), w.InvoiceDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), w.DueDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), w.Status)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), w.PaidAmount)
		row++
	}

	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), session.TotalPercentage())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("schedule_%d_%s.xlsx", projectID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// InvoicePDF renders a single invoice as a PDF document
func (s *ExportService) InvoicePDF(ctx context.Context, invoiceID uint) ([]byte, string, error) {
	invoice, err := s.invoiceSvc.Get(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Invoice")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, invoice.GUID)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, invoice.Project.Name)
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	lines := []struct {
		label string
		value string
	}{
		{"Client:", invoice.Project.ClientName},
		{"Week:", weekLabel(invoice.WeekNo)},
		{"Receiver:", invoice.ReceiverCategory},
		{"Payer:", invoice.PayerCategory},
		{"Weekly Cost %:", fmt.Sprintf("%.2f%%", invoice.WeeklyCostPercentage)},
		{"Weekly Cost Amount:", fmt.Sprintf("%.2f", invoice.WeeklyCostAmount)},
		{"GST (Central):", fmt.Sprintf("%.2f%%", invoice.GSTCentralPct)},
		{"GST (State):", fmt.Sprintf("%.2f%%", invoice.GSTStatePct)},
		{"Penalty:", fmt.Sprintf("%.2f", invoice.PenaltyAmount)},
		{"Total With Tax:", fmt.Sprintf("%.2f", invoice.TotalWithTax)},
		{"Due Date:", invoice.DueDate.Format("2006-01-02")},
		{"Status:", invoice.Status},
	}
	for _, line := range lines {
		pdf.Cell(60, 8, line.label)
		pdf.Cell(60, 8, line.value)
		pdf.Ln(6)
	}

	if invoice.ActualPaymentDate != nil {
		pdf.Cell(60, 8, "Paid On:")
		pdf.Cell(60, 8, invoice.ActualPaymentDate.Format("2006-01-02"))
		pdf.Ln(6)
	}
	if invoice.CancellationReason != nil {
		pdf.Cell(60, 8, "Cancelled:")
		pdf.Cell(60, 8, *invoice.CancellationReason)
		pdf.Ln(6)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("invoice_%s.pdf", invoice.GUID)
	return buf.Bytes(), filename, nil
}

func weekLabel(weekNo int) string {
	if weekNo == models.SignupWeekNo {
		return "Signup"
	}
	return fmt.Sprintf("Week %d", weekNo)
}
