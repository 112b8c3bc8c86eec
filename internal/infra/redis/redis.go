package redis

import (
	"log"
	"sync"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/example/profinder/internal/config"
)

var (
	client radix.Client
	once   sync.Once
)

// Init 建立 Redis 连接池并验证可达性。名额提示、在线定价、
// 令牌缓存都共用这个池，连不上时直接终止进程。
func Init(cfg *config.RedisConfig) radix.Client {
	once.Do(func() {
		size := cfg.PoolSize
		if size <= 0 {
			size = 10
		}
		pool, err := radix.NewPool("tcp", cfg.Addr, size)
		if err != nil {
			log.Fatalf("redis %s: %v", cfg.Addr, err)
		}
		if err := pool.Do(radix.Cmd(nil, "PING")); err != nil {
			log.Fatalf("redis %s ping: %v", cfg.Addr, err)
		}
		client = pool
	})
	return client
}

// Client 获取已初始化的客户端，未初始化时为 nil
func Client() radix.Client {
	return client
}
