package service

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// 核心操作的错误全部以哨兵值返回给调用方，由接入层决定展示方式。
// 分四类：校验类在触碰任何状态前拒绝；冲突类表示操作对当前状态不再适用；
// 资源类是业务规则拒绝；Retryable 表示事务未提交、整个操作可安全重试。
var (
	// 校验类
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidMode     = errors.New("invalid unlock mode")
	ErrInvalidDecision = errors.New("invalid refund decision")
	ErrReasonTooShort  = errors.New("refund reason too short")

	// 冲突类
	ErrAlreadyUnlocked       = errors.New("request already unlocked by this account")
	ErrSlotsFull             = errors.New("no unlock slots left")
	ErrExclusivityConflict   = errors.New("exclusivity conflict")
	ErrRequestClosed         = errors.New("service request closed")
	ErrAlreadyRequested      = errors.New("refund already requested for this allocation")
	ErrAlreadyResolved       = errors.New("refund already resolved")
	ErrGuaranteeWindowClosed = errors.New("guarantee window closed")

	// 业务资源类
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotApproved  = errors.New("account not approved")
	ErrNotOwner            = errors.New("allocation belongs to another account")
	ErrAllocationNotActive = errors.New("allocation not active")
	ErrUsernameTaken       = errors.New("username already taken")

	// 不存在
	ErrAccountNotFound      = errors.New("account not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrRequestNotFound      = errors.New("service request not found")
	ErrAllocationNotFound   = errors.New("allocation not found")
	ErrRefundNotFound       = errors.New("refund request not found")

	// 瞬态类，事务未提交、无任何部分生效，调用方可整体重试
	ErrRetryable = errors.New("transient storage conflict")
)

// MySQL 错误码
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// translateTxError 把底层锁等待/死锁错误翻译为 Retryable，
// 事务此时已整体回滚，调用方重试是安全的。其他错误原样返回。
func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlLockWaitTimeout, mysqlDeadlock:
			return fmt.Errorf("%w: %v", ErrRetryable, err)
		}
	}
	return err
}

// isDuplicateKey 唯一索引冲突检测，用作并发兜底
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
