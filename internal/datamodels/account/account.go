package account

import (
	"context"
	"time"
)

// 交易流水原因枚举
const (
	ReasonPurchase     = "purchase"      // 支付网关充值
	ReasonAdminGrant   = "admin_grant"   // 后台赠送
	ReasonUnlockDebit  = "unlock_debit"  // 解锁联系方式扣费
	ReasonRefundCredit = "refund_credit" // 退款入账
)

// Account 服务者的金币账户，余额只允许账本服务修改
type Account struct {
	ID             int64 `gorm:"primaryKey"`
	ProfessionalID int64 `gorm:"uniqueIndex;not null"`
	Balance        int64 `gorm:"not null"`                     // 可用金币，任何时刻不允许为负
	Approved       bool  `gorm:"index;not null;default:false"` // 资质审核通过前不允许消费
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transaction 金币交易流水，只追加、不修改、不删除
// Delta 为带符号变动值，余额恒等于流水 Delta 之和。
type Transaction struct {
	ID        int64     `gorm:"primaryKey"`
	AccountID int64     `gorm:"index;not null"`
	Delta     int64     `gorm:"not null"`
	Reason    string    `gorm:"size:32;index;not null"` // purchase / admin_grant / unlock_debit / refund_credit
	Reference *int64    `gorm:"index"`                  // 关联的解锁或退款单 ID，后台赠送时为空
	AdminID   *int64    `gorm:"index"`                  // 后台操作人，仅 admin_grant 填写
	Note      string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"index"`
}

// Repository 账户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByProfessionalID(ctx context.Context, professionalID int64) (*Account, error)
	Create(ctx context.Context, acc *Account) error
	Update(ctx context.Context, acc *Account) error
	ListAll(ctx context.Context) ([]*Account, error)

	CreateTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]*Transaction, error)
	// SumDeltas 汇总某账户全部流水变动，用于与余额对账
	SumDeltas(ctx context.Context, accountID int64) (int64, error)
}
