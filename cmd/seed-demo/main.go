package main

import (
	"context"
	"log"

	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/datamodels/request"
	"github.com/example/profinder/internal/repository/mysql"
	"github.com/example/profinder/internal/service"
)

// seed-demo 写入一批演示数据：三个服务者（其中两个已审核并充值）
// 和几张带联系方式的需求单，方便本地联调。

func main() {
	cfg := config.DefaultConfig()
	db := mysql.Init(&cfg.MySQL)
	ctx := context.Background()

	professionalRepo := mysql.NewProfessionalRepository(db)
	professionalSvc := service.NewProfessionalService(db, professionalRepo, &cfg.JWT)
	ledgerSvc := service.NewLedgerService(db, nil)
	adminSvc := service.NewAdminService(db, ledgerSvc, nil)
	requestRepo := mysql.NewRequestRepository(db)

	seedPros := []struct {
		username string
		approved bool
		coins    int64
	}{
		{"zhang_shifu", true, 100},
		{"li_shifu", true, 40},
		{"wang_shifu", false, 0},
	}

	for _, sp := range seedPros {
		if _, err := professionalRepo.GetByUsername(ctx, sp.username); err == nil {
			log.Printf("professional %s already exists, skip", sp.username)
			continue
		}
		p, acc, err := professionalSvc.Register(ctx, sp.username, "demo123456")
		if err != nil {
			log.Fatalf("register %s failed: %v", sp.username, err)
		}
		if sp.approved {
			if _, err := adminSvc.ApproveAccount(ctx, acc.ID); err != nil {
				log.Fatalf("approve %s failed: %v", sp.username, err)
			}
		}
		if sp.coins > 0 {
			if _, err := adminSvc.Grant(ctx, acc.ID, sp.coins, 1, "演示数据初始金币"); err != nil {
				log.Fatalf("grant %s failed: %v", sp.username, err)
			}
		}
		log.Printf("seeded professional %s (id=%d account=%d)", p.Username, p.ID, acc.ID)
	}

	seedRequests := []*request.ServiceRequest{
		{
			Title:        "厨房水管漏水维修",
			Description:  "老房子水管接口渗水，希望本周内上门",
			ClientName:   "陈女士",
			ContactPhone: "13800000001",
			ContactEmail: "chen@example.com",
			Status:       request.StatusOpen,
		},
		{
			Title:        "全屋开荒保洁",
			Description:  "新房交付，120 平，两周内均可",
			ClientName:   "刘先生",
			ContactPhone: "13800000002",
			ContactEmail: "liu@example.com",
			Status:       request.StatusOpen,
		},
		{
			Title:        "空调加氟上门",
			Description:  "两台挂机制冷变差",
			ClientName:   "赵先生",
			ContactPhone: "13800000003",
			ContactEmail: "zhao@example.com",
			Status:       request.StatusOpen,
		},
	}

	coins := cfg.Coins
	for _, sr := range seedRequests {
		sr.MaxSlots = coins.MaxSlots
		if err := requestRepo.Create(ctx, sr); err != nil {
			log.Fatalf("create request %q failed: %v", sr.Title, err)
		}
		log.Printf("seeded request %q (id=%d)", sr.Title, sr.ID)
	}

	log.Println("seed done")
}
