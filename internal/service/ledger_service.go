package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/profinder/internal/datamodels/account"
	"github.com/example/profinder/internal/repository/mysql"
)

// LedgerService 金币账本，唯一允许修改账户余额的组件。
// 每次余额变动都在行锁事务内完成，并同步追加一条流水，
// 保证任意时刻余额等于流水 Delta 之和且永不为负。
type LedgerService struct {
	db          *gorm.DB
	accountRepo account.Repository
	events      *EventPublisher
}

// NewLedgerService 创建账本服务，events 可为 nil（关闭事件流）
func NewLedgerService(db *gorm.DB, events *EventPublisher) *LedgerService {
	return &LedgerService{
		db:          db,
		accountRepo: mysql.NewAccountRepository(db),
		events:      events,
	}
}

// Credit 入账。amount 必须大于 0，reference 指向引起入账的解锁/退款单。
// 返回新余额。
func (s *LedgerService) Credit(ctx context.Context, accountID, amount int64, reason string, reference *int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		newBalance, err = s.applyDelta(tx, accountID, amount, reason, reference, nil, "")
		return err
	})
	if err != nil {
		return 0, translateTxError(err)
	}
	s.publish(ctx, CoinEvent{
		Type:      EventCredit,
		AccountID: accountID,
		Amount:    amount,
		Balance:   newBalance,
	})
	return newBalance, nil
}

// Debit 出账。余额不足时返回 ErrInsufficientBalance，不产生任何变更。
// 跨实体的原子性（扣费 + 解锁记录同生同灭）由调用方在自己的事务里
// 通过 DebitTx 组合，这里只保证单账户余额不为负。
func (s *LedgerService) Debit(ctx context.Context, accountID, amount int64, reason string, reference *int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		newBalance, err = s.applyDelta(tx, accountID, -amount, reason, reference, nil, "")
		return err
	})
	if err != nil {
		return 0, translateTxError(err)
	}
	s.publish(ctx, CoinEvent{
		Type:      EventDebit,
		AccountID: accountID,
		Amount:    amount,
		Balance:   newBalance,
	})
	return newBalance, nil
}

// Grant 后台赠送，入账并在流水上记录操作人，不做审核状态门禁
func (s *LedgerService) Grant(ctx context.Context, accountID, amount, adminID int64, note string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var newBalance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		newBalance, err = s.applyDelta(tx, accountID, amount, account.ReasonAdminGrant, nil, &adminID, note)
		return err
	})
	if err != nil {
		return 0, translateTxError(err)
	}
	s.publish(ctx, CoinEvent{
		Type:      EventCredit,
		AccountID: accountID,
		Amount:    amount,
		Balance:   newBalance,
	})
	return newBalance, nil
}

// CreditTx 在调用方事务内入账，供退款审批与自动保障组合使用
func (s *LedgerService) CreditTx(tx *gorm.DB, accountID, amount int64, reason string, reference *int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.applyDelta(tx, accountID, amount, reason, reference, nil, "")
}

// DebitTx 在调用方事务内出账，供解锁操作组合使用
func (s *LedgerService) DebitTx(tx *gorm.DB, accountID, amount int64, reason string, reference *int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return s.applyDelta(tx, accountID, -amount, reason, reference, nil, "")
}

// Balance 查询当前余额
func (s *LedgerService) Balance(ctx context.Context, accountID int64) (int64, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return acc.Balance, nil
}

// ListTransactions 查询交易流水
func (s *LedgerService) ListTransactions(ctx context.Context, accountID int64, limit int) ([]*account.Transaction, error) {
	return s.accountRepo.ListTransactions(ctx, accountID, limit)
}

// Reconcile 核对某账户余额与流水之和是否一致，供对账 worker 调用
func (s *LedgerService) Reconcile(ctx context.Context, accountID int64) (balance, sum int64, err error) {
	balance, err = s.Balance(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}
	sum, err = s.accountRepo.SumDeltas(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}
	return balance, sum, nil
}

// applyDelta 行锁事务内的余额变动：锁定账户行、校验、落余额、追加流水。
// delta 为带符号值，出账时余额不足直接报错让整个事务回滚。
func (s *LedgerService) applyDelta(tx *gorm.DB, accountID, delta int64, reason string, reference, adminID *int64, note string) (int64, error) {
	var acc account.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&acc, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}

	if delta < 0 && acc.Balance+delta < 0 {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientBalance, -delta, acc.Balance)
	}

	acc.Balance += delta
	if err := tx.Save(&acc).Error; err != nil {
		return 0, err
	}

	if err := tx.Create(&account.Transaction{
		AccountID: accountID,
		Delta:     delta,
		Reason:    reason,
		Reference: reference,
		AdminID:   adminID,
		Note:      note,
	}).Error; err != nil {
		return 0, err
	}

	return acc.Balance, nil
}

func (s *LedgerService) publish(ctx context.Context, ev CoinEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		GetMonitor().RecordMQError()
	}
}
