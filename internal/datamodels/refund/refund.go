package refund

import (
	"context"
	"time"
)

// 退款单类型
const (
	KindManual             = "manual"              // 人工申请，后台审核
	KindAutomaticGuarantee = "automatic_guarantee" // 一次性自动保障，免审核
)

// 退款单状态，pending 只能走向 approved 或 denied，且各自只发生一次
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// RefundRequest 针对一条解锁记录的退款单。
// allocation_id 唯一：每条解锁记录至多一张退款单，被驳回后也不允许重提。
// 自动保障单在创建时即处于 approved 终态，与入账同一事务落库。
type RefundRequest struct {
	ID            int64      `gorm:"primaryKey"`
	AllocationID  int64      `gorm:"uniqueIndex;not null"`
	AccountID     int64      `gorm:"index;not null"` // 冗余自解锁记录，便于按服务者查询
	Kind          string     `gorm:"size:32;not null"`
	Status        string     `gorm:"size:16;index;not null;default:pending"`
	Reason        string     `gorm:"size:512"`
	Evidence      string     `gorm:"size:2048"` // 证据链接列表，JSON 数组
	AdminResponse string     `gorm:"size:512"`
	ResolvedAt    *time.Time `gorm:"index"`
	CreatedAt     time.Time  `gorm:"index"`
	UpdatedAt     time.Time
}

// Repository 退款单仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*RefundRequest, error)
	GetByAllocationID(ctx context.Context, allocationID int64) (*RefundRequest, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*RefundRequest, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]*RefundRequest, error)
	ListRecent(ctx context.Context, limit int) ([]*RefundRequest, error)
}
