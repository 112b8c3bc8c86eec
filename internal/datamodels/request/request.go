package request

import (
	"context"
	"time"
)

// 需求单状态
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusFinalized  = "finalized"
	StatusCancelled  = "cancelled"
)

// ServiceRequest 客户发布的需求单。
// 联系方式只有持有有效解锁记录的服务者才能拿到。
type ServiceRequest struct {
	ID            int64  `gorm:"primaryKey"`
	Title         string `gorm:"size:128;not null"`
	Description   string `gorm:"size:1024"`
	ClientName    string `gorm:"size:64"`
	ContactPhone  string `gorm:"size:32"`
	ContactEmail  string `gorm:"size:128"`
	Status        string `gorm:"size:32;index;not null;default:open"`
	MaxSlots      int64  `gorm:"not null"`                     // 创建时从配置快照，普通解锁名额上限
	ExclusiveLock bool   `gorm:"not null;default:false"`       // 一旦出现独占解锁立即置位，此后拒绝任何新解锁
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository 需求单仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*ServiceRequest, error)
	Create(ctx context.Context, r *ServiceRequest) error
	Update(ctx context.Context, r *ServiceRequest) error
	ListByStatus(ctx context.Context, status string, limit int) ([]*ServiceRequest, error)
	ListRecent(ctx context.Context, limit int) ([]*ServiceRequest, error)
}
