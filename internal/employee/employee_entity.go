package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Employee struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string          `gorm:"type:varchar(100);not null"`
	Email       string          `gorm:"type:varchar(100);uniqueIndex:uq_employee_email;not null"`
	Password    string          `gorm:"type:varchar(100);not null"`
	Role        string          `gorm:"type:varchar(20);not null"`
	JoiningDate time.Time       `gorm:"type:date;not null"`
	BaseSalary  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
