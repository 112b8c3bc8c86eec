package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/profinder/internal/datamodels/professional"
)

type professionalRepo struct {
	db *gorm.DB
}

// NewProfessionalRepository 创建服务者仓储
func NewProfessionalRepository(db *gorm.DB) professional.Repository {
	return &professionalRepo{db: db}
}

func (r *professionalRepo) GetByID(ctx context.Context, id int64) (*professional.Professional, error) {
	var p professional.Professional
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *professionalRepo) GetByUsername(ctx context.Context, username string) (*professional.Professional, error) {
	var p professional.Professional
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *professionalRepo) Create(ctx context.Context, p *professional.Professional) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *professionalRepo) Update(ctx context.Context, p *professional.Professional) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *professionalRepo) ListAll(ctx context.Context) ([]*professional.Professional, error) {
	var list []*professional.Professional
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
