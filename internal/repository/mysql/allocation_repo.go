package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/profinder/internal/datamodels/allocation"
)

type allocationRepo struct {
	db *gorm.DB
}

// NewAllocationRepository 创建解锁记录仓储
func NewAllocationRepository(db *gorm.DB) allocation.Repository {
	return &allocationRepo{db: db}
}

func (r *allocationRepo) GetByID(ctx context.Context, id int64) (*allocation.Allocation, error) {
	var a allocation.Allocation
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *allocationRepo) GetByRequestAndAccount(ctx context.Context, requestID, accountID int64) (*allocation.Allocation, error) {
	var a allocation.Allocation
	if err := r.db.WithContext(ctx).
		Where("request_id = ? AND account_id = ?", requestID, accountID).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *allocationRepo) CountActiveByRequest(ctx context.Context, requestID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&allocation.Allocation{}).
		Where("request_id = ? AND status = ?", requestID, allocation.StatusActive).
		Count(&n).Error
	return n, err
}

func (r *allocationRepo) ListByAccount(ctx context.Context, accountID int64) ([]*allocation.Allocation, error) {
	var list []*allocation.Allocation
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *allocationRepo) ListByRequest(ctx context.Context, requestID int64) ([]*allocation.Allocation, error) {
	var list []*allocation.Allocation
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
