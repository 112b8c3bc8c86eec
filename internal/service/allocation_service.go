package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	radix "github.com/mediocregopher/radix/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/datamodels/account"
	"github.com/example/profinder/internal/datamodels/allocation"
	"github.com/example/profinder/internal/datamodels/request"
)

const (
	// 剩余名额提示缓存，仅供前台展示，权威判断永远在解锁事务里
	redisSlotsHintKey      = "alloc:slots:%d" // requestID
	slotsHintExpireSeconds = 600
)

// ContactDetails 解锁成功后可见的客户联系方式
type ContactDetails struct {
	ClientName string `json:"client_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// AllocationService 联系方式解锁（名额分配）服务。
// 同一需求单的所有解锁请求在其行锁上串行化：前置校验、扣费、
// 解锁记录创建、独占标记更新要么全部生效要么全不生效。
type AllocationService struct {
	db      *gorm.DB
	ledger  *LedgerService
	pricing *config.Store
	redis   radix.Client // 可为 nil，仅影响名额提示缓存
	events  *EventPublisher
}

// NewAllocationService 创建解锁服务
func NewAllocationService(db *gorm.DB, ledger *LedgerService, pricing *config.Store, redisClient radix.Client, events *EventPublisher) *AllocationService {
	return &AllocationService{
		db:      db,
		ledger:  ledger,
		pricing: pricing,
		redis:   redisClient,
		events:  events,
	}
}

// Unlock 解锁需求单联系方式。
// 前置条件按顺序校验：账户已审核、未重复解锁、需求单未被独占、
// 独占模式要求名额全空、普通模式要求名额未满、余额足够。
// 任一条件不满足则事务回滚，不留下任何状态变更。
func (s *AllocationService) Unlock(ctx context.Context, accountID, requestID int64, mode string) (*allocation.Allocation, error) {
	GetMonitor().RecordUnlockRequest()

	coins := s.pricing.Snapshot()
	var cost int64
	switch mode {
	case allocation.ModeNormal:
		cost = coins.CostNormal
	case allocation.ModeExclusive:
		cost = coins.CostExclusive
	default:
		return nil, ErrInvalidMode
	}

	var (
		alloc     allocation.Allocation
		slotsLeft int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 锁定需求单行，同一需求单的并发解锁在这里排队
		var req request.ServiceRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.Status != request.StatusOpen && req.Status != request.StatusInProgress {
			return ErrRequestClosed
		}

		// 2) 锁定账户行（锁序固定：先需求单后账户，避免死锁）
		var acc account.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&acc, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if !acc.Approved {
			return ErrAccountNotApproved
		}

		// 3) 同一服务者不能重复解锁同一需求单
		var existing allocation.Allocation
		err := tx.Where("request_id = ? AND account_id = ?", requestID, accountID).
			First(&existing).Error
		if err == nil {
			return ErrAlreadyUnlocked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 4) 独占标记一旦置位，任何模式都不再放行
		if req.ExclusiveLock {
			return ErrExclusivityConflict
		}

		// 5) 名额校验
		maxSlots := req.MaxSlots
		if maxSlots <= 0 {
			maxSlots = coins.MaxSlots
		}
		var active int64
		if err := tx.Model(&allocation.Allocation{}).
			Where("request_id = ? AND status = ?", requestID, allocation.StatusActive).
			Count(&active).Error; err != nil {
			return err
		}
		if mode == allocation.ModeExclusive {
			// 独占要求此前没有任何有效解锁
			if active > 0 {
				return ErrExclusivityConflict
			}
		} else if active >= maxSlots {
			return ErrSlotsFull
		}

		// 6) 创建解锁记录；唯一索引兜底重复解锁
		alloc = allocation.Allocation{
			RequestID: requestID,
			AccountID: accountID,
			Mode:      mode,
			Cost:      cost,
			Status:    allocation.StatusActive,
		}
		if err := tx.Create(&alloc).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyUnlocked
			}
			return err
		}

		// 7) 扣费，余额不足时整个事务回滚
		if _, err := s.ledger.DebitTx(tx, accountID, cost, account.ReasonUnlockDebit, &alloc.ID); err != nil {
			return err
		}

		// 8) 独占模式置位独占标记
		if mode == allocation.ModeExclusive {
			req.ExclusiveLock = true
			slotsLeft = 0
		} else {
			slotsLeft = maxSlots - active - 1
		}
		return tx.Save(&req).Error
	})
	if err != nil {
		err = translateTxError(err)
		switch {
		case errors.Is(err, ErrAlreadyUnlocked), errors.Is(err, ErrSlotsFull), errors.Is(err, ErrExclusivityConflict):
			GetMonitor().RecordUnlockConflict()
		case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrAccountNotApproved):
			GetMonitor().RecordUnlockRejected()
		}
		return nil, err
	}

	GetMonitor().RecordUnlockSuccess()
	s.syncSlotsHint(requestID, slotsLeft)
	if s.events != nil {
		if err := s.events.Publish(ctx, CoinEvent{
			Type:         EventUnlock,
			AccountID:    accountID,
			RequestID:    requestID,
			AllocationID: alloc.ID,
			Amount:       cost,
		}); err != nil {
			GetMonitor().RecordMQError()
		}
	}
	return &alloc, nil
}

// ContactDetails 返回需求单联系方式，只有持有有效解锁记录的账户可见
func (s *AllocationService) ContactDetails(ctx context.Context, accountID, requestID int64) (*ContactDetails, error) {
	var a allocation.Allocation
	if err := s.db.WithContext(ctx).
		Where("request_id = ? AND account_id = ? AND status = ?", requestID, accountID, allocation.StatusActive).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAllocationNotFound
		}
		return nil, err
	}
	var req request.ServiceRequest
	if err := s.db.WithContext(ctx).First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &ContactDetails{
		ClientName: req.ClientName,
		Phone:      req.ContactPhone,
		Email:      req.ContactEmail,
	}, nil
}

// ListByAccount 查询某账户的全部解锁记录
func (s *AllocationService) ListByAccount(ctx context.Context, accountID int64) ([]*allocation.Allocation, error) {
	var list []*allocation.Allocation
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// SlotsHint 剩余名额提示：优先读缓存，未命中时按库里现状计算并回填。
// 仅用于前台展示，真实判定在 Unlock 的事务内。
func (s *AllocationService) SlotsHint(ctx context.Context, requestID int64) (int64, error) {
	key := fmt.Sprintf(redisSlotsHintKey, requestID)
	if s.redis != nil {
		var raw string
		if err := s.redis.Do(radix.Cmd(&raw, "GET", key)); err != nil {
			GetMonitor().RecordRedisError()
		} else if raw != "" {
			if left, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return left, nil
			}
		}
	}

	var req request.ServiceRequest
	if err := s.db.WithContext(ctx).First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrRequestNotFound
		}
		return 0, err
	}
	if req.ExclusiveLock || (req.Status != request.StatusOpen && req.Status != request.StatusInProgress) {
		s.syncSlotsHint(requestID, 0)
		return 0, nil
	}

	maxSlots := req.MaxSlots
	if maxSlots <= 0 {
		maxSlots = s.pricing.Snapshot().MaxSlots
	}
	var active int64
	if err := s.db.WithContext(ctx).Model(&allocation.Allocation{}).
		Where("request_id = ? AND status = ?", requestID, allocation.StatusActive).
		Count(&active).Error; err != nil {
		return 0, err
	}
	left := maxSlots - active
	if left < 0 {
		left = 0
	}
	s.syncSlotsHint(requestID, left)
	return left, nil
}

func (s *AllocationService) syncSlotsHint(requestID, left int64) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf(redisSlotsHintKey, requestID)
	if err := s.redis.Do(radix.FlatCmd(nil, "SETEX", key, slotsHintExpireSeconds, left)); err != nil {
		GetMonitor().RecordRedisError()
	}
}
