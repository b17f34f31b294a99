package salary

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
)

func renderPayslipPDF(period Period, rec SalaryRecordResponse) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s", period.Key()), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Payslip", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, period.Start().Format("January 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	name := rec.EmployeeName
	if name == "" {
		name = "-"
	}
	lines := [][2]string{
		{"Employee", name},
		{"Employee ID", rec.EmployeeID},
		{"Calculated at", rec.CalculationDate.UTC().Format(time.RFC1123)},
	}
	for _, l := range lines {
		pdf.CellFormat(45, 7, l[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, l[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	amounts := [][2]string{
		{"Base salary", rec.BaseSalary},
		{"Overtime pay", rec.OvertimePay},
		{"Deductions", "-" + rec.Deductions},
	}
	for _, a := range amounts {
		pdf.CellFormat(120, 8, a[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, a[1], "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 9, "Final salary", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 9, rec.FinalSalary, "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func PayslipFileName(employeeID string, period Period) string {
	return fmt.Sprintf("payslip-%s-%s.pdf", employeeID, period.Key())
}
