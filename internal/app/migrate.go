package app

import (
	"context"
	"fmt"
	"time"

	"go-ems/internal/alert"
	"go-ems/internal/attendance"
	"go-ems/internal/config"
	"go-ems/internal/employee"
	"go-ems/internal/leave"
	"go-ems/internal/performance"
	"go-ems/internal/rbac"
	"go-ems/internal/salary"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const createOutboxTable = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id             uuid PRIMARY KEY,
	request_id     varchar(64),
	aggregate_type varchar(50)  NOT NULL,
	aggregate_id   varchar(64)  NOT NULL,
	event_type     varchar(100) NOT NULL,
	topic          varchar(150) NOT NULL,
	payload        jsonb        NOT NULL,
	status         varchar(20)  NOT NULL DEFAULT 'pending',
	retry_count    integer      NOT NULL DEFAULT 0,
	next_retry_at  timestamptz,
	processed_at   timestamptz,
	error_message  varchar(500),
	created_at     timestamptz  NOT NULL DEFAULT NOW(),
	updated_at     timestamptz  NOT NULL DEFAULT NOW()
)`

const createOutboxIndex = `CREATE INDEX IF NOT EXISTS idx_outbox_events_pending ON outbox_events (status, next_retry_at, created_at)`

const demoPassword = "password123"

// RunMigrate creates the schema and, on an empty employees table, the demo
// data set.
func RunMigrate(ctx context.Context, cfg *config.Config, seed bool) error {
	logger := zap.L().Named("app.migrate")

	st, err := connectStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	db := st.gormDB.WithContext(ctx)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&employee.Employee{},
		&attendance.Attendance{},
		&leave.Leave{},
		&performance.Review{},
		&alert.Alert{},
		&salary.SalaryRecord{},
		&rbac.RolePermissionRow{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range []string{createOutboxTable, createOutboxIndex} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create outbox table: %w", err)
		}
	}
	logger.Info("schema migrated")

	if !seed {
		return nil
	}
	seeded, err := seedDemoData(db, time.Now())
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	if seeded {
		logger.Info("demo data seeded")
	}
	return nil
}

func seedDemoData(db *gorm.DB, now time.Time) (bool, error) {
	var count int64
	if err := db.Model(&employee.Employee{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	nextWeek := today.AddDate(0, 0, 7)

	employees := []employee.Employee{
		demoEmployee("John Manager", "manager@example.com", "manager", "2022-01-01", 5000, hashed),
		demoEmployee("Jane Employee", "employee@example.com", "employee", "2022-02-15", 3000, hashed),
		demoEmployee("Bob Developer", "developer@example.com", "developer", "2022-03-10", 4000, hashed),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&employees).Error; err != nil {
			return err
		}

		var attendances []attendance.Attendance
		for _, e := range employees {
			attendances = append(attendances,
				demoAttendance(e.ID, today, 9, 0, 18, 0, 2),
				demoAttendance(e.ID, yesterday, 9, 30, 17, 30, 0),
			)
		}
		if err := tx.Omit("Employee").Create(&attendances).Error; err != nil {
			return err
		}

		leaves := []leave.Leave{
			{
				EmployeeID: employees[1].ID,
				LeaveType:  leave.TypeVacation,
				StartDate:  nextWeek,
				EndDate:    nextWeek.AddDate(0, 0, 1),
				Reason:     "Family vacation",
				Status:     leave.StatusPending,
			},
			{
				EmployeeID: employees[2].ID,
				LeaveType:  leave.TypeSick,
				StartDate:  today,
				EndDate:    today,
				Reason:     "Doctor appointment",
				Status:     leave.StatusApproved,
			},
		}
		if err := tx.Omit("Employee").Create(&leaves).Error; err != nil {
			return err
		}

		lastMonth := today.AddDate(0, -1, 0)
		var reviews []performance.Review
		for i, e := range employees {
			reviews = append(reviews, performance.Review{
				EmployeeID: e.ID,
				Rating:     5 - i%3,
				Feedback:   "Good performance overall. Keep up the good work!",
				ReviewDate: lastMonth,
			})
		}
		if err := tx.Omit("Employee").Create(&reviews).Error; err != nil {
			return err
		}

		alerts := []alert.Alert{
			{Title: "Team Meeting", Message: "Reminder: Team meeting tomorrow at 10 AM", EmployeeID: alert.RecipientAll, AlertDate: today},
			{Title: "Project Deadline", Message: "The project deadline is approaching", EmployeeID: employees[1].ID.String(), AlertDate: nextWeek},
		}
		return tx.Create(&alerts).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func demoEmployee(name, email, role, joined string, base int64, hashed []byte) employee.Employee {
	joining, _ := time.Parse(time.DateOnly, joined)
	return employee.Employee{
		ID:          uuid.New(),
		Name:        name,
		Email:       email,
		Password:    string(hashed),
		Role:        role,
		JoiningDate: joining,
		BaseSalary:  decimal.NewFromInt(base),
	}
}

func demoAttendance(employeeID uuid.UUID, day time.Time, inH, inM, outH, outM, overtime int) attendance.Attendance {
	checkIn := time.Date(day.Year(), day.Month(), day.Day(), inH, inM, 0, 0, time.Local)
	checkOut := time.Date(day.Year(), day.Month(), day.Day(), outH, outM, 0, 0, time.Local)
	return attendance.Attendance{
		EmployeeID:     employeeID,
		AttendanceDate: day,
		Status:         attendance.StatusPresent,
		OvertimeHours:  overtime,
		CheckInTime:    &checkIn,
		CheckOutTime:   &checkOut,
	}
}
