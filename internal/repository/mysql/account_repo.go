package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/profinder/internal/datamodels/account"
)

type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(db *gorm.DB) account.Repository {
	return &accountRepo{db: db}
}

func (r *accountRepo) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	var acc account.Account
	if err := r.db.WithContext(ctx).First(&acc, id).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepo) GetByProfessionalID(ctx context.Context, professionalID int64) (*account.Account, error) {
	var acc account.Account
	if err := r.db.WithContext(ctx).Where("professional_id = ?", professionalID).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepo) Create(ctx context.Context, acc *account.Account) error {
	return r.db.WithContext(ctx).Create(acc).Error
}

func (r *accountRepo) Update(ctx context.Context, acc *account.Account) error {
	return r.db.WithContext(ctx).Save(acc).Error
}

func (r *accountRepo) ListAll(ctx context.Context) ([]*account.Account, error) {
	var list []*account.Account
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *accountRepo) CreateTransaction(ctx context.Context, tx *account.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *accountRepo) ListTransactions(ctx context.Context, accountID int64, limit int) ([]*account.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*account.Transaction
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *accountRepo) SumDeltas(ctx context.Context, accountID int64) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&account.Transaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error
	return sum, err
}
