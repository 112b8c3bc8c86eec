package server

import (
	"time"

	"github.com/kataras/iris/v12"

	"github.com/example/profinder/internal/auth"
	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/datamodels/account"
	"github.com/example/profinder/internal/infra/mq"
	"github.com/example/profinder/internal/infra/redis"
	"github.com/example/profinder/internal/middleware"
	"github.com/example/profinder/internal/repository/mysql"
	"github.com/example/profinder/internal/service"
)

// RegisterRoutes 注册前台（服务者端）HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config, pricing *config.Store) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	professionalRepo := mysql.NewProfessionalRepository(db)
	requestRepo := mysql.NewRequestRepository(db)

	events := service.NewEventPublisher(mqConn)
	ledgerSvc := service.NewLedgerService(db, events)
	allocSvc := service.NewAllocationService(db, ledgerSvc, pricing, redisClient, events)
	refundSvc := service.NewRefundService(db, ledgerSvc, pricing, events)
	professionalSvc := service.NewProfessionalService(db, professionalRepo, &cfg.JWT)

	// JWT 解析结果缓存
	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"code": 0,
			"msg":  "ok",
		})
	})

	// 服务者注册/登录
	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p, acc, err := professionalSvc.Register(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"professional_id": p.ID,
			"account_id":      acc.ID,
			"approved":        acc.Approved,
		}})
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := professionalSvc.Login(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"token": token}})
	})

	// 支付网关回调：支付成功后凭共享密钥入账
	api.Post("/payments/callback", func(ctx iris.Context) {
		if ctx.GetHeader("X-Webhook-Secret") != cfg.Payment.WebhookSecret {
			ctx.StopWithJSON(403, iris.Map{"code": 403, "msg": "invalid webhook secret"})
			return
		}
		var req struct {
			AccountID int64 `json:"account_id"`
			Amount    int64 `json:"amount"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		newBalance, err := ledgerSvc.Credit(ctx.Request().Context(), req.AccountID, req.Amount, account.ReasonPurchase, nil)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"new_balance": newBalance}})
	})

	// 需要登录的接口
	authAPI := api.Party("/", func(ctx iris.Context) {
		token := ctx.GetHeader("Authorization")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		claims, hit, err := tokenCache.Get(ctx.Request().Context(), token)
		if err != nil {
			service.GetMonitor().RecordRedisError()
			hit = false
		}
		if !hit {
			claims, err = auth.ParseToken(&cfg.JWT, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			_ = tokenCache.Set(ctx.Request().Context(), token, claims)
		}
		ctx.Values().Set("account_id", claims.AccountID)
		ctx.Values().Set("professional_id", claims.ProfessionalID)
		ctx.Values().Set("username", claims.Username)
		ctx.Next()
	})

	// 当前账户（余额 + 审核状态）
	authAPI.Get("/account", func(ctx iris.Context) {
		accountID := ctx.Values().GetInt64Default("account_id", 0)
		balance, err := ledgerSvc.Balance(ctx.Request().Context(), accountID)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"account_id": accountID,
			"balance":    balance,
		}})
	})

	// 交易流水
	authAPI.Get("/transactions", func(ctx iris.Context) {
		accountID := ctx.Values().GetInt64Default("account_id", 0)
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := ledgerSvc.ListTransactions(ctx.Request().Context(), accountID, limit)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 可接单的需求单列表（不含联系方式）
	authAPI.Get("/requests", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		list, err := requestRepo.ListByStatus(ctx.Request().Context(), "open", limit)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		out := make([]iris.Map, 0, len(list))
		for _, r := range list {
			out = append(out, iris.Map{
				"id":          r.ID,
				"title":       r.Title,
				"description": r.Description,
				"status":      r.Status,
				"created_at":  r.CreatedAt,
			})
		}
		ctx.JSON(iris.Map{"code": 0, "data": out})
	})

	// 需求单详情：带剩余名额提示；已解锁的账户额外返回联系方式
	authAPI.Get("/requests/{id:uint64}", func(ctx iris.Context) {
		rid, _ := ctx.Params().GetUint64("id")
		accountID := ctx.Values().GetInt64Default("account_id", 0)

		r, err := requestRepo.GetByID(ctx.Request().Context(), int64(rid))
		if err != nil {
			ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "request not found"})
			return
		}

		// 名额提示只是展示参考，抢名额时以解锁事务为准
		slotsLeft, err := allocSvc.SlotsHint(ctx.Request().Context(), r.ID)
		if err != nil {
			slotsLeft = 0
		}

		data := iris.Map{
			"id":             r.ID,
			"title":          r.Title,
			"description":    r.Description,
			"status":         r.Status,
			"max_slots":      r.MaxSlots,
			"exclusive_lock": r.ExclusiveLock,
			"slots_left":     slotsLeft,
			"created_at":     r.CreatedAt,
		}
		if contact, err := allocSvc.ContactDetails(ctx.Request().Context(), accountID, r.ID); err == nil {
			data["contact"] = contact
		}
		ctx.JSON(iris.Map{"code": 0, "data": data})
	})

	// 解锁联系方式（抢名额热点接口，从严限流）
	authAPI.Post("/requests/{id:uint64}/unlock", middleware.UnlockRateLimit(), func(ctx iris.Context) {
		rid, _ := ctx.Params().GetUint64("id")
		accountID := ctx.Values().GetInt64Default("account_id", 0)
		var req struct {
			Mode string `json:"mode"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		alloc, err := allocSvc.Unlock(ctx.Request().Context(), accountID, int64(rid), req.Mode)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		contact, err := allocSvc.ContactDetails(ctx.Request().Context(), accountID, int64(rid))
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"allocation": alloc,
			"contact":    contact,
		}})
	})

	// 自己的解锁记录
	authAPI.Get("/allocations", func(ctx iris.Context) {
		accountID := ctx.Values().GetInt64Default("account_id", 0)
		list, err := allocSvc.ListByAccount(ctx.Request().Context(), accountID)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 人工退款申请
	authAPI.Post("/allocations/{id:uint64}/refund", func(ctx iris.Context) {
		aid, _ := ctx.Params().GetUint64("id")
		accountID := ctx.Values().GetInt64Default("account_id", 0)
		var req struct {
			Reason   string   `json:"reason"`
			Evidence []string `json:"evidence"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		rr, err := refundSvc.Submit(ctx.Request().Context(), accountID, int64(aid), req.Reason, req.Evidence)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": rr})
	})

	// 一次性自动保障（免审核按比例赔付）
	authAPI.Post("/allocations/{id:uint64}/guarantee", func(ctx iris.Context) {
		aid, _ := ctx.Params().GetUint64("id")
		accountID := ctx.Values().GetInt64Default("account_id", 0)
		result, err := refundSvc.AutoGuarantee(ctx.Request().Context(), accountID, int64(aid))
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": result})
	})

	// 自己的退款单
	authAPI.Get("/refunds", func(ctx iris.Context) {
		accountID := ctx.Values().GetInt64Default("account_id", 0)
		list, err := refundSvc.ListByAccount(ctx.Request().Context(), accountID)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})
}
