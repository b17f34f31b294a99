package salary

import "time"

type CalculateRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=1970,max=9999"`
}

// PeriodQuery defaults to the current month when both fields are omitted.
type PeriodQuery struct {
	Month int `form:"month" binding:"omitempty,min=1,max=12"`
	Year  int `form:"year" binding:"omitempty,min=1970,max=9999"`
}

// BreakdownResponse carries amounts rounded to cents as decimal strings.
type BreakdownResponse struct {
	EmployeeID           string    `json:"employee_id"`
	EmployeeName         string    `json:"employee_name,omitempty"`
	Month                int       `json:"month"`
	Year                 int       `json:"year"`
	BaseSalary           string    `json:"base_salary"`
	OvertimePay          string    `json:"overtime_pay"`
	AbsenceDeduction     string    `json:"absence_deduction"`
	LateDeduction        string    `json:"late_deduction"`
	UnpaidLeaveDeduction string    `json:"unpaid_leave_deduction"`
	Deductions           string    `json:"deductions"`
	FinalSalary          string    `json:"final_salary"`
	Absences             int       `json:"absences"`
	LateArrivals         int       `json:"late_arrivals"`
	UnpaidLeaveDays      int       `json:"unpaid_leave_days"`
	OvertimeHours        int       `json:"overtime_hours"`
	CalculationDate      time.Time `json:"calculation_date"`
}

type RunFailure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type RunResult struct {
	Month          int          `json:"month"`
	Year           int          `json:"year"`
	Processed      []string     `json:"processed"`
	Failed         []RunFailure `json:"failed"`
	PartialFailure bool         `json:"partial_failure"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
}

type RunStatusResponse struct {
	Month      int        `json:"month"`
	Year       int        `json:"year"`
	State      RunState   `json:"state"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Result     *RunResult `json:"result,omitempty"`
}

type SalaryRecordResponse struct {
	ID              string    `json:"id"`
	EmployeeID      string    `json:"employee_id"`
	EmployeeName    string    `json:"employee_name,omitempty"`
	Month           int       `json:"month"`
	Year            int       `json:"year"`
	BaseSalary      string    `json:"base_salary"`
	OvertimePay     string    `json:"overtime_pay"`
	Deductions      string    `json:"deductions"`
	FinalSalary     string    `json:"final_salary"`
	CalculationDate time.Time `json:"calculation_date"`
	CalculatedBy    string    `json:"calculated_by"`
}

type runCompletePayload struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func mapBreakdownResponse(employee EmployeeRef, period Period, b Breakdown, at time.Time) BreakdownResponse {
	r := b.Rounded()
	return BreakdownResponse{
		EmployeeID:           employee.ID.String(),
		EmployeeName:         employee.Name,
		Month:                period.Month,
		Year:                 period.Year,
		BaseSalary:           r.BaseSalary.StringFixed(presentationScale),
		OvertimePay:          r.OvertimePay.StringFixed(presentationScale),
		AbsenceDeduction:     r.AbsenceDeduction.StringFixed(presentationScale),
		LateDeduction:        r.LateDeduction.StringFixed(presentationScale),
		UnpaidLeaveDeduction: r.UnpaidLeaveDeduction.StringFixed(presentationScale),
		Deductions:           r.Deductions.StringFixed(presentationScale),
		FinalSalary:          r.FinalSalary.StringFixed(presentationScale),
		Absences:             b.Absences,
		LateArrivals:         b.LateArrivals,
		UnpaidLeaveDays:      b.UnpaidLeaveDays,
		OvertimeHours:        b.OvertimeHours,
		CalculationDate:      at,
	}
}

func mapRecordResponse(rec SalaryRecord) SalaryRecordResponse {
	resp := SalaryRecordResponse{
		ID:              rec.ID.String(),
		EmployeeID:      rec.EmployeeID.String(),
		Month:           rec.Month,
		Year:            rec.Year,
		BaseSalary:      rec.BaseSalary.StringFixed(presentationScale),
		OvertimePay:     rec.OvertimePay.StringFixed(presentationScale),
		Deductions:      rec.Deductions.StringFixed(presentationScale),
		FinalSalary:     rec.FinalSalary.StringFixed(presentationScale),
		CalculationDate: rec.CalculationDate,
		CalculatedBy:    rec.CalculatedBy,
	}
	if rec.Employee != nil {
		resp.EmployeeName = rec.Employee.Name
	}
	return resp
}

func mapRecordListResponse(records []SalaryRecord) []SalaryRecordResponse {
	out := make([]SalaryRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, mapRecordResponse(rec))
	}
	return out
}
