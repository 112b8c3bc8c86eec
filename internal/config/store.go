package config

import (
	"encoding/json"
	"fmt"
	"sync"

	radix "github.com/mediocregopher/radix/v3"
)

const coinsConfigKey = "config:coins"

// Store 保存可在线调整的金币规则。
// 规则写入 Redis，前台与后台两个进程共享同一份；Redis 不可用时
// 退回进程内的初始值。核心服务每次操作前通过 Snapshot 重新读取，
// 已经进入事务的操作仍按读取时的快照执行。
type Store struct {
	mu    sync.RWMutex
	coins CoinsConfig
	redis radix.Client // 可为 nil（测试或单进程场景）
}

// NewStore 以初始规则构建配置仓库
func NewStore(coins CoinsConfig, redisClient radix.Client) *Store {
	return &Store{coins: coins, redis: redisClient}
}

// Snapshot 返回当前金币规则。优先读 Redis 里的共享配置，
// 未设置或读取失败时返回进程内的快照。
func (s *Store) Snapshot() CoinsConfig {
	if s.redis != nil {
		var raw string
		if err := s.redis.Do(radix.Cmd(&raw, "GET", coinsConfigKey)); err == nil && raw != "" {
			var coins CoinsConfig
			if err := json.Unmarshal([]byte(raw), &coins); err == nil {
				return coins
			}
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coins
}

// Update 整体替换金币规则，非法取值直接拒绝
func (s *Store) Update(coins CoinsConfig) error {
	if coins.CostNormal <= 0 || coins.CostExclusive <= 0 {
		return fmt.Errorf("解锁单价必须大于 0")
	}
	if coins.MaxSlots <= 0 {
		return fmt.Errorf("名额上限必须大于 0")
	}
	if coins.GuaranteePercent < 0 || coins.GuaranteePercent > 100 {
		return fmt.Errorf("保障比例必须在 0-100 之间")
	}
	if coins.GuaranteeWindowDays < 0 {
		return fmt.Errorf("保障期天数不能为负")
	}

	s.mu.Lock()
	s.coins = coins
	s.mu.Unlock()

	if s.redis != nil {
		body, _ := json.Marshal(&coins)
		if err := s.redis.Do(radix.FlatCmd(nil, "SET", coinsConfigKey, body)); err != nil {
			return fmt.Errorf("保存共享配置失败: %w", err)
		}
	}
	return nil
}
