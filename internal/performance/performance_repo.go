package performance

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=performance_repo.go -destination=mock/performance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *Review) error
	FindAll(ctx context.Context, employeeID string) ([]Review, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, r *Review) error
	EmployeeExists(ctx context.Context, employeeID string) (bool, error)
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

func (r *repository) Create(ctx context.Context, rv *Review) error {
	return r.conn(ctx).Omit("Employee").Create(rv).Error
}

// FindAll lists newest reviews first. An empty employeeID lists everyone.
func (r *repository) FindAll(ctx context.Context, employeeID string) ([]Review, error) {
	db := r.conn(ctx).Preload("Employee")
	if employeeID != "" {
		db = db.Where("employee_id = ?", employeeID)
	}
	var reviews []Review
	err := db.Order("review_date DESC").Find(&reviews).Error
	return reviews, err
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*Review, error) {
	var rv Review
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rv, "id = ?", id).Error
	return &rv, err
}

func (r *repository) Update(ctx context.Context, rv *Review) error {
	return r.conn(ctx).Omit("Employee").Save(rv).Error
}

func (r *repository) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	var count int64
	err := r.conn(ctx).Table("employees").Where("id = ?", employeeID).Count(&count).Error
	return count > 0, err
}
