package salary

import (
	"time"

	salaryerrors "go-ems/internal/salary/errors"

	"github.com/shopspring/decimal"
)

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"

	LeaveTypeUnpaid = "unpaid"
	LeaveApproved   = "approved"
)

var (
	daysPerMonth      = decimal.NewFromInt(30)
	hoursPerMonth     = decimal.NewFromInt(30 * 8)
	lateFraction      = decimal.NewFromInt(3)
	overtimeMultiple  = decimal.NewFromFloat(1.5)
	presentationScale = int32(2)
)

// AttendanceInput is one attendance day already filtered to the employee and period.
type AttendanceInput struct {
	Date          time.Time
	Status        string
	OvertimeHours int
}

// LeaveInput is one leave request already filtered to the employee and period.
type LeaveInput struct {
	Type      string
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

// Breakdown holds unrounded amounts. Round only when presenting.
type Breakdown struct {
	BaseSalary           decimal.Decimal
	OvertimePay          decimal.Decimal
	AbsenceDeduction     decimal.Decimal
	LateDeduction        decimal.Decimal
	UnpaidLeaveDeduction decimal.Decimal
	Deductions           decimal.Decimal
	FinalSalary          decimal.Decimal

	Absences        int
	LateArrivals    int
	UnpaidLeaveDays int
	OvertimeHours   int
}

// ComputeSalary reduces pre-filtered attendance and leave rows into a breakdown.
// The daily rate is always base/30 regardless of the month length, and the
// final amount is not floored at zero.
func ComputeSalary(base decimal.Decimal, attendance []AttendanceInput, leaves []LeaveInput) (Breakdown, error) {
	if base.IsNegative() {
		return Breakdown{}, salaryerrors.ErrInvalidInput
	}

	daily := base.Div(daysPerMonth)
	hourly := base.Div(hoursPerMonth)

	b := Breakdown{
		BaseSalary:  base,
		OvertimePay: decimal.Zero,
	}

	for _, rec := range attendance {
		if rec.OvertimeHours < 0 {
			return Breakdown{}, salaryerrors.ErrInvalidInput
		}
		switch rec.Status {
		case AttendanceAbsent:
			b.Absences++
		case AttendanceLate:
			b.LateArrivals++
		}
		if rec.OvertimeHours > 0 {
			b.OvertimeHours += rec.OvertimeHours
			b.OvertimePay = b.OvertimePay.Add(
				hourly.Mul(overtimeMultiple).Mul(decimal.NewFromInt(int64(rec.OvertimeHours))),
			)
		}
	}

	unpaid := decimal.Zero
	for _, leave := range leaves {
		if leave.Type != LeaveTypeUnpaid || leave.Status != LeaveApproved {
			continue
		}
		days, err := inclusiveDays(leave.StartDate, leave.EndDate)
		if err != nil {
			return Breakdown{}, err
		}
		b.UnpaidLeaveDays += days
		unpaid = unpaid.Add(daily.Mul(decimal.NewFromInt(int64(days))))
	}

	b.AbsenceDeduction = daily.Mul(decimal.NewFromInt(int64(b.Absences)))
	b.LateDeduction = daily.Div(lateFraction).Mul(decimal.NewFromInt(int64(b.LateArrivals)))
	b.UnpaidLeaveDeduction = unpaid
	b.Deductions = b.AbsenceDeduction.Add(b.LateDeduction).Add(b.UnpaidLeaveDeduction)
	b.FinalSalary = base.Add(b.OvertimePay).Sub(b.Deductions)

	return b, nil
}

// Rounded returns a copy with every amount rounded to cents.
func (b Breakdown) Rounded() Breakdown {
	r := b
	r.BaseSalary = b.BaseSalary.Round(presentationScale)
	r.OvertimePay = b.OvertimePay.Round(presentationScale)
	r.AbsenceDeduction = b.AbsenceDeduction.Round(presentationScale)
	r.LateDeduction = b.LateDeduction.Round(presentationScale)
	r.UnpaidLeaveDeduction = b.UnpaidLeaveDeduction.Round(presentationScale)
	r.Deductions = b.Deductions.Round(presentationScale)
	r.FinalSalary = b.FinalSalary.Round(presentationScale)
	return r
}

func inclusiveDays(start, end time.Time) (int, error) {
	s := civilDate(start)
	e := civilDate(end)
	if e.Before(s) {
		return 0, salaryerrors.ErrInvalidLeaveRange
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
