package rbac

import (
	"context"

	"gorm.io/gorm"
)

type RolePermissionRow struct {
	Role     string `gorm:"column:role;type:varchar(20);primaryKey"`
	Resource string `gorm:"column:resource;type:varchar(50);primaryKey"`
	Action   string `gorm:"column:action;type:varchar(30);primaryKey"`
}

func (RolePermissionRow) TableName() string {
	return "role_permissions"
}

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error) {
	var rows []RolePermissionRow
	err := r.db.WithContext(ctx).
		Order("role, resource, action").
		Find(&rows).Error
	return rows, err
}
