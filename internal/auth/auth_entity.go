package auth

import "github.com/google/uuid"

// Account is the credential view of an employee row.
type Account struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name     string
	Email    string
	Password string
	Role     string
}

func (Account) TableName() string {
	return "employees"
}
