package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/profinder/internal/datamodels/refund"
)

type refundRepo struct {
	db *gorm.DB
}

// NewRefundRepository 创建退款单仓储
func NewRefundRepository(db *gorm.DB) refund.Repository {
	return &refundRepo{db: db}
}

func (r *refundRepo) GetByID(ctx context.Context, id int64) (*refund.RefundRequest, error) {
	var rr refund.RefundRequest
	if err := r.db.WithContext(ctx).First(&rr, id).Error; err != nil {
		return nil, err
	}
	return &rr, nil
}

func (r *refundRepo) GetByAllocationID(ctx context.Context, allocationID int64) (*refund.RefundRequest, error) {
	var rr refund.RefundRequest
	if err := r.db.WithContext(ctx).
		Where("allocation_id = ?", allocationID).
		First(&rr).Error; err != nil {
		return nil, err
	}
	return &rr, nil
}

func (r *refundRepo) ListByAccount(ctx context.Context, accountID int64) ([]*refund.RefundRequest, error) {
	var list []*refund.RefundRequest
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *refundRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*refund.RefundRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*refund.RefundRequest
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *refundRepo) ListRecent(ctx context.Context, limit int) ([]*refund.RefundRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*refund.RefundRequest
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
