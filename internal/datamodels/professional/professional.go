package professional

import (
	"context"
	"time"
)

// Professional 专业服务者（技师/师傅）登录主体
type Professional struct {
	ID        int64     `gorm:"primaryKey"`
	Username  string    `gorm:"uniqueIndex;size:64;not null"`
	Password  string    `gorm:"size:255;not null"` // 已加密密码
	Salt      string    `gorm:"size:64"`
	Banned    bool      `gorm:"index;not null;default:false"` // 封禁后禁止登录，账户数据保留
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository 服务者仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Professional, error)
	GetByUsername(ctx context.Context, username string) (*Professional, error)
	Create(ctx context.Context, p *Professional) error
	Update(ctx context.Context, p *Professional) error
	ListAll(ctx context.Context) ([]*Professional, error)
}
