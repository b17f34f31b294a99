package events

import "time"

// RecordChangedTopic carries every mutation of a record that feeds salary
// computation or the dashboards.
const RecordChangedTopic = "ems.records.changed.v1"

const (
	EntityEmployee    = "employee"
	EntityAttendance  = "attendance"
	EntityLeave       = "leave"
	EntityPerformance = "performance"
	EntityAlert       = "alert"
)

const (
	EmployeeCreated    = "employee_created"
	EmployeeUpdated    = "employee_updated"
	EmployeeDeleted    = "employee_deleted"
	AttendanceUpdated  = "attendance_updated"
	LeaveCreated       = "leave_created"
	LeaveReviewed      = "leave_reviewed"
	PerformanceUpdated = "performance_updated"
	AlertCreated       = "alert_created"
	AlertDeleted       = "alert_deleted"
)

type RecordChangedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	EmployeeID string    `json:"employee_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AffectsSalary reports whether cached breakdowns of EmployeeID are stale.
func (e RecordChangedEvent) AffectsSalary() bool {
	switch e.Entity {
	case EntityEmployee, EntityAttendance, EntityLeave:
		return e.EmployeeID != ""
	default:
		return false
	}
}
