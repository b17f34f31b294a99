package salary

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Salaries"

var exportHeaders = []string{
	"Employee ID", "Employee Name", "Month", "Year", "Base Salary",
	"Overtime Pay", "Deductions", "Final Salary", "Calculated At", "Calculated By",
}

func renderSalaryWorkbook(period Period, records []SalaryRecordResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	for i, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "J1", headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "A", "J", 18); err != nil {
		return nil, err
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.EmployeeID,
			rec.EmployeeName,
			rec.Month,
			rec.Year,
			money(rec.BaseSalary),
			money(rec.OvertimePay),
			money(rec.Deductions),
			money(rec.FinalSalary),
			rec.CalculationDate.Format("2006-01-02 15:04"),
			rec.CalculatedBy,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write salary workbook for %s: %w", period.Key(), err)
	}
	return buf.Bytes(), nil
}

func money(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func ExportFileName(period Period) string {
	return fmt.Sprintf("salaries-%s.xlsx", period.Key())
}
