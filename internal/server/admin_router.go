package server

import (
	"strconv"

	"github.com/kataras/iris/v12"

	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/datamodels/refund"
	"github.com/example/profinder/internal/datamodels/request"
	"github.com/example/profinder/internal/infra/mq"
	"github.com/example/profinder/internal/infra/redis"
	"github.com/example/profinder/internal/repository/mysql"
	"github.com/example/profinder/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台服务分离，只在内网暴露。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config, pricing *config.Store) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	requestRepo := mysql.NewRequestRepository(db)
	allocationRepo := mysql.NewAllocationRepository(db)

	events := service.NewEventPublisher(mqConn)
	ledgerSvc := service.NewLedgerService(db, events)
	allocSvc := service.NewAllocationService(db, ledgerSvc, pricing, redisClient, events)
	refundSvc := service.NewRefundService(db, ledgerSvc, pricing, events)
	adminSvc := service.NewAdminService(db, ledgerSvc, refundSvc)

	api := app.Party("/api")

	// ---------- 账户管理 ----------

	// 账户列表（余额与审核状态）
	api.Get("/accounts", func(ctx iris.Context) {
		list, err := adminSvc.ListAccounts(ctx.Request().Context())
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 审核通过账户，放开消费
	api.Post("/accounts/{id:uint64}/approve", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		acc, err := adminSvc.ApproveAccount(ctx.Request().Context(), int64(id))
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": acc})
	})

	// 赠送金币（记录操作人）
	api.Post("/accounts/{id:uint64}/grant", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		var req struct {
			Amount  int64  `json:"amount"`
			AdminID int64  `json:"admin_id"`
			Note    string `json:"note"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		newBalance, err := adminSvc.Grant(ctx.Request().Context(), int64(id), req.Amount, req.AdminID, req.Note)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"new_balance": newBalance}})
	})

	// 账户交易流水
	api.Get("/accounts/{id:uint64}/transactions", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		limit := ctx.URLParamIntDefault("limit", 50)
		list, err := ledgerSvc.ListTransactions(ctx.Request().Context(), int64(id), limit)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 账户余额与流水对账
	api.Get("/accounts/{id:uint64}/reconcile", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		balance, sum, err := ledgerSvc.Reconcile(ctx.Request().Context(), int64(id))
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"balance":    balance,
			"tx_sum":     sum,
			"consistent": balance == sum,
		}})
	})

	// ---------- 需求单管理 ----------

	// 创建需求单（联系方式入库，解锁前不对服务者可见）
	api.Post("/requests", func(ctx iris.Context) {
		var req struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ClientName   string `json:"client_name"`
			ContactPhone string `json:"contact_phone"`
			ContactEmail string `json:"contact_email"`
			MaxSlots     int64  `json:"max_slots"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		maxSlots := req.MaxSlots
		if maxSlots <= 0 {
			maxSlots = pricing.Snapshot().MaxSlots
		}
		sr := &request.ServiceRequest{
			Title:        req.Title,
			Description:  req.Description,
			ClientName:   req.ClientName,
			ContactPhone: req.ContactPhone,
			ContactEmail: req.ContactEmail,
			Status:       request.StatusOpen,
			MaxSlots:     maxSlots,
		}
		if err := requestRepo.Create(ctx.Request().Context(), sr); err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": sr})
	})

	// 需求单列表
	api.Get("/requests", func(ctx iris.Context) {
		limit := ctx.URLParamIntDefault("limit", 20)
		status := ctx.URLParam("status")
		var (
			list []*request.ServiceRequest
			err  error
		)
		if status != "" {
			list, err = requestRepo.ListByStatus(ctx.Request().Context(), status, limit)
		} else {
			list, err = requestRepo.ListRecent(ctx.Request().Context(), limit)
		}
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 需求单状态流转（open / in_progress / finalized / cancelled）
	api.Put("/requests/{id:uint64}/status", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		switch req.Status {
		case request.StatusOpen, request.StatusInProgress, request.StatusFinalized, request.StatusCancelled:
		default:
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "unknown status: " + req.Status})
			return
		}
		sr, err := requestRepo.GetByID(ctx.Request().Context(), int64(id))
		if err != nil {
			ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "request not found"})
			return
		}
		sr.Status = req.Status
		if err := requestRepo.Update(ctx.Request().Context(), sr); err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": sr})
	})

	// 某需求单的解锁记录与剩余名额
	api.Get("/requests/{id:uint64}/allocations", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		list, err := allocationRepo.ListByRequest(ctx.Request().Context(), int64(id))
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		slotsLeft, err := allocSvc.SlotsHint(ctx.Request().Context(), int64(id))
		if err != nil {
			slotsLeft = 0
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"allocations": list,
			"slots_left":  slotsLeft,
		}})
	})

	// ---------- 退款审批 ----------

	// 退款队列，默认只看待审批
	api.Get("/refunds", func(ctx iris.Context) {
		limitStr := ctx.URLParamDefault("limit", "20")
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			limit = 20
		}
		status := ctx.URLParamDefault("status", refund.StatusPending)
		if status == "all" {
			status = ""
		}
		list, err := refundSvc.List(ctx.Request().Context(), status, limit)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 审批退款单
	api.Post("/refunds/{id:uint64}/resolve", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		var req struct {
			Decision string `json:"decision"` // approve / deny
			Comment  string `json:"comment"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		rr, err := adminSvc.ResolveRefund(ctx.Request().Context(), int64(id), req.Decision, req.Comment)
		if err != nil {
			stopWithError(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": rr})
	})

	// ---------- 金币规则 ----------

	api.Get("/coins", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "data": pricing.Snapshot()})
	})

	api.Put("/coins", func(ctx iris.Context) {
		var coins config.CoinsConfig
		if err := ctx.ReadJSON(&coins); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := pricing.Update(coins); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": pricing.Snapshot()})
	})

	// ---------- 监控 ----------

	api.Get("/stats", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "data": service.GetMonitor().GetStats()})
	})
}
