package notification

import (
	"context"
	"encoding/json"
	"time"
)

// Live event names shared with the dashboard.
const (
	EventSalaryUpdated             = "salary_updated"
	EventSalaryCalculationComplete = "salary_calculation_complete"
	EventAttendanceUpdated         = "attendance_updated"
	EventAttendanceUpdate          = "attendance_update"
	EventLeaveUpdated              = "leave_updated"
	EventPerformanceUpdated        = "performance_updated"
	EventPerformanceUpdate         = "performance_update"
	EventAlertReceived             = "alert_received"
	EventProfileUpdated            = "profile_updated"
	EventRefreshData               = "refresh_data"
)

// Message is one live event. An empty EmployeeID and Role means broadcast.
type Message struct {
	Event      string          `json:"event"`
	EmployeeID string          `json:"employee_id,omitempty"`
	Role       string          `json:"role,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	SentAt     time.Time       `json:"sent_at"`
}

func (m Message) IsBroadcast() bool {
	return m.EmployeeID == "" && m.Role == ""
}

// Channel delivers live events at most once. Sends never block the caller and
// report nothing: an offline recipient simply misses the event, and the
// record store stays the source of truth.
//
//go:generate mockgen -source=notification.go -destination=mock/notification_mock.go -package=mock
type Channel interface {
	NotifyEmployee(ctx context.Context, employeeID, event string, payload any)
	NotifyRole(ctx context.Context, role, event string, payload any)
	Broadcast(ctx context.Context, event string, payload any)
	// Subscribe streams every event passing through the channel until ctx ends.
	Subscribe(ctx context.Context) (<-chan Message, error)
}

func newMessage(event, employeeID, role string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Event:      event,
		EmployeeID: employeeID,
		Role:       role,
		Payload:    raw,
		SentAt:     time.Now().UTC(),
	}, nil
}
