package performance

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID  `gorm:"type:uuid;not null;index:idx_performance_employee"`
	Rating     int        `gorm:"type:smallint;not null;check:chk_performance_rating,rating BETWEEN 1 AND 5"`
	Feedback   string     `gorm:"type:text"`
	ReviewDate time.Time  `gorm:"type:date;not null"`
	ReviewerID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Employee *EmployeeRef `gorm:"foreignKey:EmployeeID;references:ID"`
}

func (Review) TableName() string {
	return "performance_reviews"
}

type EmployeeRef struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"column:name"`
}

func (EmployeeRef) TableName() string {
	return "employees"
}
