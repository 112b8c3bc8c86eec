package main

import (
	"log"

	"github.com/kataras/iris/v12"

	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/infra/redis"
	"github.com/example/profinder/internal/server"
)

func main() {
	// 加载配置（默认配置 + 环境变量覆盖）
	cfg := config.DefaultConfig()
	// 金币规则经 Redis 在前后台进程间共享，后台修改立即生效
	pricing := config.NewStore(cfg.Coins, redis.Init(&cfg.Redis))

	app := iris.New()
	server.RegisterRoutes(app, cfg, pricing)

	addr := cfg.Server.Addr()
	log.Printf("web server listening on %s", addr)
	if err := app.Run(iris.Addr(addr)); err != nil {
		log.Fatalf("failed to run web server: %v", err)
	}
}
