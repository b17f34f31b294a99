package salary

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalaryRecord is the persisted result of a run, one per employee and month.
type SalaryRecord struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_salary_employee_period"`
	Month           int             `gorm:"not null;uniqueIndex:idx_salary_employee_period"`
	Year            int             `gorm:"not null;uniqueIndex:idx_salary_employee_period"`
	BaseSalary      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	OvertimePay     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Deductions      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	FinalSalary     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CalculationDate time.Time       `gorm:"not null"`
	CalculatedBy    string          `gorm:"type:varchar(64);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Employee *EmployeeRef `gorm:"foreignKey:EmployeeID;references:ID"`
}

func (SalaryRecord) TableName() string {
	return "salary_records"
}

type EmployeeRef struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name       string          `gorm:"column:name"`
	Email      string          `gorm:"column:email"`
	Role       string          `gorm:"column:role"`
	BaseSalary decimal.Decimal `gorm:"column:base_salary"`
}

func (EmployeeRef) TableName() string {
	return "employees"
}

type AttendanceRow struct {
	EmployeeID     uuid.UUID `gorm:"column:employee_id"`
	AttendanceDate time.Time `gorm:"column:attendance_date"`
	Status         string    `gorm:"column:status"`
	OvertimeHours  int       `gorm:"column:overtime_hours"`
}

func (AttendanceRow) TableName() string {
	return "attendances"
}

type LeaveRow struct {
	EmployeeID uuid.UUID `gorm:"column:employee_id"`
	LeaveType  string    `gorm:"column:leave_type"`
	Status     string    `gorm:"column:status"`
	StartDate  time.Time `gorm:"column:start_date"`
	EndDate    time.Time `gorm:"column:end_date"`
}

func (LeaveRow) TableName() string {
	return "leaves"
}
