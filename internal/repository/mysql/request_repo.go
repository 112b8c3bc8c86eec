package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/profinder/internal/datamodels/request"
)

type requestRepo struct {
	db *gorm.DB
}

// NewRequestRepository 创建需求单仓储
func NewRequestRepository(db *gorm.DB) request.Repository {
	return &requestRepo{db: db}
}

func (r *requestRepo) GetByID(ctx context.Context, id int64) (*request.ServiceRequest, error) {
	var sr request.ServiceRequest
	if err := r.db.WithContext(ctx).First(&sr, id).Error; err != nil {
		return nil, err
	}
	return &sr, nil
}

func (r *requestRepo) Create(ctx context.Context, sr *request.ServiceRequest) error {
	return r.db.WithContext(ctx).Create(sr).Error
}

func (r *requestRepo) Update(ctx context.Context, sr *request.ServiceRequest) error {
	return r.db.WithContext(ctx).Save(sr).Error
}

func (r *requestRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*request.ServiceRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*request.ServiceRequest
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *requestRepo) ListRecent(ctx context.Context, limit int) ([]*request.ServiceRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*request.ServiceRequest
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
