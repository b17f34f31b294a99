package alert

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=alert_repo.go -destination=mock/alert_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *Alert) error
	// FindVisibleTo returns alerts addressed to employeeID or to everyone.
	// An empty employeeID returns every alert.
	FindVisibleTo(ctx context.Context, employeeID string) ([]Alert, error)
	Delete(ctx context.Context, id string) (*Alert, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, a *Alert) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) FindVisibleTo(ctx context.Context, employeeID string) ([]Alert, error) {
	db := r.conn(ctx)
	if employeeID != "" {
		db = db.Where("employee_id IN ?", []string{employeeID, RecipientAll})
	}
	var alerts []Alert
	err := db.Order("alert_date DESC, created_at DESC").Find(&alerts).Error
	return alerts, err
}

// Delete removes the alert and returns what was removed.
func (r *repository) Delete(ctx context.Context, id string) (*Alert, error) {
	var a Alert
	db := r.conn(ctx)
	if err := db.First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := db.Delete(&Alert{}, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
