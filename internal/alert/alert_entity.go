package alert

import (
	"time"

	"github.com/google/uuid"
)

// RecipientAll addresses every employee.
const RecipientAll = "all"

// Alert.EmployeeID holds an employee uuid or RecipientAll, so it is text.
type Alert struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title      string     `gorm:"type:varchar(200);not null"`
	Message    string     `gorm:"type:text;not null"`
	EmployeeID string     `gorm:"type:varchar(36);not null;index:idx_alerts_employee"`
	AlertDate  time.Time  `gorm:"column:alert_date;type:date;not null"`
	CreatedBy  *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
}

func (Alert) TableName() string {
	return "alerts"
}

func (a Alert) IsBroadcast() bool {
	return a.EmployeeID == RecipientAll
}
