package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/profinder/internal/datamodels/account"
	"github.com/example/profinder/internal/datamodels/refund"
	"github.com/example/profinder/internal/repository/mysql"
)

// AdminService 后台特权入口：赠送金币、驱动退款审批、账户审核。
// 自身不做业务判断，全部落在账本与退款引擎里。
type AdminService struct {
	db          *gorm.DB
	ledger      *LedgerService
	refunds     *RefundService
	accountRepo account.Repository
}

// NewAdminService 创建后台服务
func NewAdminService(db *gorm.DB, ledger *LedgerService, refunds *RefundService) *AdminService {
	return &AdminService{
		db:          db,
		ledger:      ledger,
		refunds:     refunds,
		accountRepo: mysql.NewAccountRepository(db),
	}
}

// Grant 赠送金币，无审核门禁，流水上记录操作人便于审计
func (s *AdminService) Grant(ctx context.Context, accountID, amount, adminID int64, note string) (int64, error) {
	return s.ledger.Grant(ctx, accountID, amount, adminID, note)
}

// ResolveRefund 审批退款单
func (s *AdminService) ResolveRefund(ctx context.Context, refundID int64, decision, comment string) (*refund.RefundRequest, error) {
	return s.refunds.Resolve(ctx, refundID, decision, comment)
}

// ApproveAccount 审核通过账户，放开消费权限
func (s *AdminService) ApproveAccount(ctx context.Context, accountID int64) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if acc.Approved {
		return acc, nil
	}
	acc.Approved = true
	if err := s.accountRepo.Update(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// ListAccounts 后台账户列表
func (s *AdminService) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	return s.accountRepo.ListAll(ctx)
}
