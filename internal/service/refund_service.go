package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/datamodels/account"
	"github.com/example/profinder/internal/datamodels/allocation"
	"github.com/example/profinder/internal/datamodels/refund"
	"github.com/example/profinder/internal/repository/mysql"
)

// 退款审批决定
const (
	DecisionApprove = "approve"
	DecisionDeny    = "deny"
)

// MinRefundReasonLen 人工退款理由的最小长度
const MinRefundReasonLen = 10

// GuaranteeResult 自动保障的赔付结果
type GuaranteeResult struct {
	RefundID       int64 `json:"refund_id"`
	CreditedAmount int64 `json:"credited_amount"`
	NewBalance     int64 `json:"new_balance"`
}

// RefundService 退款引擎：人工申请/后台审批，以及一次性自动保障。
// 每条解锁记录至多一张退款单，退款单只从 pending 走向一个终态，
// 入账与状态翻转在同一事务内完成。
type RefundService struct {
	db         *gorm.DB
	ledger     *LedgerService
	pricing    *config.Store
	refundRepo refund.Repository
	events     *EventPublisher
}

// NewRefundService 创建退款服务
func NewRefundService(db *gorm.DB, ledger *LedgerService, pricing *config.Store, events *EventPublisher) *RefundService {
	return &RefundService{
		db:         db,
		ledger:     ledger,
		pricing:    pricing,
		refundRepo: mysql.NewRefundRepository(db),
		events:     events,
	}
}

// Submit 人工退款申请，落一张 pending 退款单等待后台审批。
// 同一解锁记录已有退款单（无论状态，含被驳回）时拒绝重提。
func (s *RefundService) Submit(ctx context.Context, accountID, allocationID int64, reason string, evidence []string) (*refund.RefundRequest, error) {
	if len(strings.TrimSpace(reason)) < MinRefundReasonLen {
		return nil, ErrReasonTooShort
	}

	var rr refund.RefundRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alloc, err := lockAllocation(tx, allocationID)
		if err != nil {
			return err
		}
		if alloc.AccountID != accountID {
			return ErrNotOwner
		}

		var existing refund.RefundRequest
		err = tx.Where("allocation_id = ?", allocationID).First(&existing).Error
		if err == nil {
			return ErrAlreadyRequested
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		rr = refund.RefundRequest{
			AllocationID: allocationID,
			AccountID:    accountID,
			Kind:         refund.KindManual,
			Status:       refund.StatusPending,
			Reason:       strings.TrimSpace(reason),
			Evidence:     refund.EncodeEvidence(evidence),
		}
		if err := tx.Create(&rr).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyRequested
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	GetMonitor().RecordRefundSubmitted()
	return &rr, nil
}

// Resolve 后台审批。approve 时把解锁记录置为 refunded 并全额入账，
// deny 时只落结论。resolved_at 一旦写入，再次审批返回 ErrAlreadyResolved。
func (s *RefundService) Resolve(ctx context.Context, refundID int64, decision, adminComment string) (*refund.RefundRequest, error) {
	if decision != DecisionApprove && decision != DecisionDeny {
		return nil, ErrInvalidDecision
	}

	var (
		rr         refund.RefundRequest
		newBalance int64
		credited   int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&rr, refundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRefundNotFound
			}
			return err
		}
		if rr.ResolvedAt != nil {
			return ErrAlreadyResolved
		}

		now := time.Now()
		rr.ResolvedAt = &now
		rr.AdminResponse = adminComment

		if decision == DecisionDeny {
			rr.Status = refund.StatusDenied
			return tx.Save(&rr).Error
		}

		alloc, err := lockAllocation(tx, rr.AllocationID)
		if err != nil {
			return err
		}
		alloc.Status = allocation.StatusRefunded
		if err := tx.Save(alloc).Error; err != nil {
			return err
		}

		rr.Status = refund.StatusApproved
		if err := tx.Save(&rr).Error; err != nil {
			return err
		}

		credited = alloc.Cost
		newBalance, err = s.ledger.CreditTx(tx, alloc.AccountID, alloc.Cost, account.ReasonRefundCredit, &alloc.ID)
		return err
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	if rr.Status == refund.StatusApproved {
		GetMonitor().RecordRefundApproved()
		s.publish(ctx, CoinEvent{
			Type:         EventRefund,
			AccountID:    rr.AccountID,
			AllocationID: rr.AllocationID,
			RefundID:     rr.ID,
			Amount:       credited,
			Balance:      newBalance,
		})
	} else {
		GetMonitor().RecordRefundDenied()
	}
	return &rr, nil
}

// AutoGuarantee 一次性自动保障：服务者声明未成单时免审核按比例赔付。
// 赔付金额 = floor(cost * guarantee_percent / 100)。退款单直接以
// approved 终态落库，同一解锁记录此后既不能再保障也不能再人工申请。
func (s *RefundService) AutoGuarantee(ctx context.Context, accountID, allocationID int64) (*GuaranteeResult, error) {
	coins := s.pricing.Snapshot()

	var out GuaranteeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alloc, err := lockAllocation(tx, allocationID)
		if err != nil {
			return err
		}
		if alloc.AccountID != accountID {
			return ErrNotOwner
		}
		if alloc.Status != allocation.StatusActive {
			return ErrAllocationNotActive
		}
		if coins.GuaranteeWindowDays > 0 {
			deadline := alloc.CreatedAt.AddDate(0, 0, int(coins.GuaranteeWindowDays))
			if time.Now().After(deadline) {
				return ErrGuaranteeWindowClosed
			}
		}

		var existing refund.RefundRequest
		err = tx.Where("allocation_id = ?", allocationID).First(&existing).Error
		if err == nil {
			return ErrAlreadyRequested
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		credited := guaranteeAmount(alloc.Cost, coins.GuaranteePercent)

		now := time.Now()
		rr := refund.RefundRequest{
			AllocationID: allocationID,
			AccountID:    accountID,
			Kind:         refund.KindAutomaticGuarantee,
			Status:       refund.StatusApproved,
			Reason:       "未成单自动保障",
			Evidence:     "[]",
			ResolvedAt:   &now,
		}
		if err := tx.Create(&rr).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyRequested
			}
			return err
		}

		alloc.Status = allocation.StatusRefunded
		if err := tx.Save(alloc).Error; err != nil {
			return err
		}

		out = GuaranteeResult{RefundID: rr.ID, CreditedAmount: credited}
		if credited > 0 {
			out.NewBalance, err = s.ledger.CreditTx(tx, accountID, credited, account.ReasonRefundCredit, &alloc.ID)
			return err
		}
		// 比例为 0 时没有入账，仅关闭该解锁记录的退款资格
		out.NewBalance, err = currentBalance(tx, accountID)
		return err
	})
	if err != nil {
		return nil, translateTxError(err)
	}

	GetMonitor().RecordGuaranteePaid()
	s.publish(ctx, CoinEvent{
		Type:         EventRefund,
		AccountID:    accountID,
		AllocationID: allocationID,
		RefundID:     out.RefundID,
		Amount:       out.CreditedAmount,
		Balance:      out.NewBalance,
	})
	return &out, nil
}

// ListByAccount 查询某账户的退款单
func (s *RefundService) ListByAccount(ctx context.Context, accountID int64) ([]*refund.RefundRequest, error) {
	return s.refundRepo.ListByAccount(ctx, accountID)
}

// List 后台退款队列，status 为空时返回最近的全部退款单
func (s *RefundService) List(ctx context.Context, status string, limit int) ([]*refund.RefundRequest, error) {
	if status == "" {
		return s.refundRepo.ListRecent(ctx, limit)
	}
	return s.refundRepo.ListByStatus(ctx, status, limit)
}

func (s *RefundService) publish(ctx context.Context, ev CoinEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		GetMonitor().RecordMQError()
	}
}

// guaranteeAmount 按比例计算保障赔付，整数除法天然向下取整
func guaranteeAmount(cost, percent int64) int64 {
	if cost <= 0 || percent <= 0 {
		return 0
	}
	if percent > 100 {
		percent = 100
	}
	return cost * percent / 100
}

// lockAllocation 行锁读取解锁记录
func lockAllocation(tx *gorm.DB, allocationID int64) (*allocation.Allocation, error) {
	var a allocation.Allocation
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, allocationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAllocationNotFound
		}
		return nil, err
	}
	return &a, nil
}

// currentBalance 事务内读取余额（不加写锁场景勿用，这里跟在行锁之后）
func currentBalance(tx *gorm.DB, accountID int64) (int64, error) {
	var acc account.Account
	if err := tx.First(&acc, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return acc.Balance, nil
}
