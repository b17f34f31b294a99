package salary

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=salary_repo.go -destination=mock/salary_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	ListEmployees(ctx context.Context) ([]EmployeeRef, error)
	FindEmployee(ctx context.Context, id string) (*EmployeeRef, error)
	FindAttendance(ctx context.Context, employeeID string, period Period) ([]AttendanceRow, error)
	FindApprovedLeaves(ctx context.Context, employeeID string, period Period) ([]LeaveRow, error)
	UpsertRecord(ctx context.Context, record *SalaryRecord) error
	ListRecords(ctx context.Context, period Period) ([]SalaryRecord, error)
	FindRecord(ctx context.Context, employeeID string, period Period) (*SalaryRecord, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) ListEmployees(ctx context.Context) ([]EmployeeRef, error) {
	var employees []EmployeeRef
	err := r.conn(ctx).Find(&employees).Error
	return employees, err
}

func (r *repository) FindEmployee(ctx context.Context, id string) (*EmployeeRef, error) {
	var employee EmployeeRef
	err := r.conn(ctx).First(&employee, "id = ?", id).Error
	return &employee, err
}

func (r *repository) FindAttendance(ctx context.Context, employeeID string, period Period) ([]AttendanceRow, error) {
	var rows []AttendanceRow
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Where("attendance_date BETWEEN ? AND ?", dateOnly(period.Start()), dateOnly(period.End())).
		Order("attendance_date ASC").
		Find(&rows).Error
	return rows, err
}

// FindApprovedLeaves returns approved leaves overlapping the period. Leaves
// are returned whole; the engine deducts every day of the range.
func (r *repository) FindApprovedLeaves(ctx context.Context, employeeID string, period Period) ([]LeaveRow, error) {
	var rows []LeaveRow
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Where("status = ?", LeaveApproved).
		Where("start_date <= ? AND end_date >= ?", dateOnly(period.End()), dateOnly(period.Start())).
		Order("start_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpsertRecord(ctx context.Context, record *SalaryRecord) error {
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}, {Name: "month"}, {Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"base_salary", "overtime_pay", "deductions", "final_salary",
				"calculation_date", "calculated_by", "updated_at",
			}),
		}).
		Omit("Employee").
		Create(record).Error
}

func (r *repository) ListRecords(ctx context.Context, period Period) ([]SalaryRecord, error) {
	var records []SalaryRecord
	err := r.conn(ctx).
		Preload("Employee").
		Where("month = ? AND year = ?", period.Month, period.Year).
		Order("final_salary DESC").
		Find(&records).Error
	return records, err
}

func (r *repository) FindRecord(ctx context.Context, employeeID string, period Period) (*SalaryRecord, error) {
	var record SalaryRecord
	err := r.conn(ctx).
		Preload("Employee").
		Where("employee_id = ? AND month = ? AND year = ?", employeeID, period.Month, period.Year).
		First(&record).Error
	return &record, err
}

func dateOnly(t time.Time) string {
	return t.Format(time.DateOnly)
}
