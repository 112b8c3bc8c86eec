package main

import (
	"log"

	"github.com/kataras/iris/v12"

	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/infra/redis"
	"github.com/example/profinder/internal/server"
)

func main() {
	cfg := config.DefaultConfig()
	// 与前台进程共用同一份 Redis 里的金币规则，这里是写入端
	pricing := config.NewStore(cfg.Coins, redis.Init(&cfg.Redis))

	app := iris.New()
	server.RegisterAdminRoutes(app, cfg, pricing)

	addr := cfg.AdminServer.Addr()
	log.Printf("admin server listening on %s", addr)
	if err := app.Run(iris.Addr(addr)); err != nil {
		log.Fatalf("failed to run admin server: %v", err)
	}
}
