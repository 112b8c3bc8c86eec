package allocation

import (
	"context"
	"time"
)

// 解锁模式
const (
	ModeNormal    = "normal"
	ModeExclusive = "exclusive"
)

// 解锁记录状态
const (
	StatusActive   = "active"
	StatusRefunded = "refunded"
)

// Allocation 一次联系方式解锁记录。
// (request_id, account_id) 唯一：同一服务者不能重复解锁同一需求单。
// 创建与账户扣费在同一事务内完成；退款只改状态，记录永不物理删除。
type Allocation struct {
	ID        int64     `gorm:"primaryKey"`
	RequestID int64     `gorm:"not null;uniqueIndex:uk_request_account,priority:1"`
	AccountID int64     `gorm:"not null;index;uniqueIndex:uk_request_account,priority:2"`
	Mode      string    `gorm:"size:16;not null"` // normal / exclusive
	Cost      int64     `gorm:"not null"`         // 下单时的价格快照
	Status    string    `gorm:"size:16;index;not null;default:active"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// Repository 解锁记录仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Allocation, error)
	GetByRequestAndAccount(ctx context.Context, requestID, accountID int64) (*Allocation, error)
	CountActiveByRequest(ctx context.Context, requestID int64) (int64, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*Allocation, error)
	ListByRequest(ctx context.Context, requestID int64) ([]*Allocation, error)
}
