package service

import (
	"sync"
	"time"
)

// Monitor 监控服务，用于统计核心操作与基础设施错误
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors    int64
	RedisErrors int64
	MQErrors    int64

	// 解锁统计
	UnlockRequests  int64
	UnlockSuccess   int64
	UnlockConflicts int64 // 名额已满/独占冲突/重复解锁
	UnlockRejected  int64 // 余额不足/未审核等业务拒绝

	// 退款统计
	RefundsSubmitted int64
	RefundsApproved  int64
	RefundsDenied    int64
	GuaranteesPaid   int64

	// 对账统计（ledger-audit worker 上报）
	AuditChecks     int64
	AuditMismatches int64

	// 时间统计
	LastUnlockTime time.Time
	LastRefundTime time.Time
	LastMismatch   time.Time
	LastRedisError time.Time
	LastMQError    time.Time
	LastDBError    time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordRedisError 记录 Redis 错误
func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
	m.LastRedisError = time.Now()
}

// RecordMQError 记录 MQ 错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordUnlockRequest 记录一次解锁请求
func (m *Monitor) RecordUnlockRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnlockRequests++
	m.LastUnlockTime = time.Now()
}

// RecordUnlockSuccess 记录解锁成功
func (m *Monitor) RecordUnlockSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnlockSuccess++
}

// RecordUnlockConflict 记录解锁冲突（名额/独占/重复）
func (m *Monitor) RecordUnlockConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnlockConflicts++
}

// RecordUnlockRejected 记录业务拒绝（余额不足/未审核）
func (m *Monitor) RecordUnlockRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnlockRejected++
}

// RecordRefundSubmitted 记录退款单提交
func (m *Monitor) RecordRefundSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundsSubmitted++
	m.LastRefundTime = time.Now()
}

// RecordRefundApproved 记录退款审批通过
func (m *Monitor) RecordRefundApproved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundsApproved++
	m.LastRefundTime = time.Now()
}

// RecordRefundDenied 记录退款驳回
func (m *Monitor) RecordRefundDenied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundsDenied++
	m.LastRefundTime = time.Now()
}

// RecordGuaranteePaid 记录自动保障赔付
func (m *Monitor) RecordGuaranteePaid() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GuaranteesPaid++
	m.LastRefundTime = time.Now()
}

// RecordAuditCheck 记录一次余额对账，mismatch 表示余额与流水不一致
func (m *Monitor) RecordAuditCheck(mismatch bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AuditChecks++
	if mismatch {
		m.AuditMismatches++
		m.LastMismatch = time.Now()
	}
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.UnlockRequests > 0 {
		successRate = float64(m.UnlockSuccess) / float64(m.UnlockRequests) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":    m.DBErrors,
			"redis": m.RedisErrors,
			"mq":    m.MQErrors,
		},
		"unlock": map[string]interface{}{
			"requests":     m.UnlockRequests,
			"success":      m.UnlockSuccess,
			"success_rate": successRate,
			"conflicts":    m.UnlockConflicts,
			"rejected":     m.UnlockRejected,
		},
		"refund": map[string]interface{}{
			"submitted":       m.RefundsSubmitted,
			"approved":        m.RefundsApproved,
			"denied":          m.RefundsDenied,
			"guarantees_paid": m.GuaranteesPaid,
		},
		"audit": map[string]interface{}{
			"checks":     m.AuditChecks,
			"mismatches": m.AuditMismatches,
		},
		"last_events": map[string]interface{}{
			"unlock":      m.LastUnlockTime,
			"refund":      m.LastRefundTime,
			"mismatch":    m.LastMismatch,
			"redis_error": m.LastRedisError,
			"mq_error":    m.LastMQError,
			"db_error":    m.LastDBError,
		},
	}
}

// Reset 重置统计（用于测试或定期清理）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors = 0
	m.RedisErrors = 0
	m.MQErrors = 0
	m.UnlockRequests = 0
	m.UnlockSuccess = 0
	m.UnlockConflicts = 0
	m.UnlockRejected = 0
	m.RefundsSubmitted = 0
	m.RefundsApproved = 0
	m.RefundsDenied = 0
	m.GuaranteesPaid = 0
	m.AuditChecks = 0
	m.AuditMismatches = 0
}
