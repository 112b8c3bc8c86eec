package service

import (
	"context"
	"os"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/datamodels/account"
	"github.com/example/profinder/internal/datamodels/allocation"
	"github.com/example/profinder/internal/datamodels/professional"
	"github.com/example/profinder/internal/datamodels/refund"
	"github.com/example/profinder/internal/datamodels/request"
)

// 服务层测试需要真实 MySQL：设置 PROFINDER_MYSQL_DSN 指向测试库后运行，
// 未设置时跳过。每个用例开始前清空全部业务表。
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("PROFINDER_MYSQL_DSN")
	if dsn == "" {
		t.Skip("PROFINDER_MYSQL_DSN is not set")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("connect mysql: %v", err)
	}

	if err := db.AutoMigrate(
		&professional.Professional{},
		&account.Account{},
		&account.Transaction{},
		&request.ServiceRequest{},
		&allocation.Allocation{},
		&refund.RefundRequest{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	for _, table := range []string{
		"transactions", "refund_requests", "allocations",
		"accounts", "service_requests", "professionals",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return db
}

func testPricing() *config.Store {
	return config.NewStore(config.CoinsConfig{
		CostNormal:          15,
		CostExclusive:       50,
		MaxSlots:            4,
		GuaranteePercent:    30,
		GuaranteeWindowDays: 30,
	}, nil)
}

func newTestAccount(t *testing.T, db *gorm.DB, balance int64, approved bool) *account.Account {
	t.Helper()
	acc := &account.Account{Balance: balance, Approved: approved}
	// 每个账户配一个登录主体，保持外键语义完整
	p := &professional.Professional{Username: uniqueName(t), Password: "x", Salt: "s"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create professional: %v", err)
	}
	acc.ProfessionalID = p.ID
	if err := db.Create(acc).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	if balance > 0 {
		// 初始余额同步落一条流水，保持余额==流水之和
		if err := db.Create(&account.Transaction{
			AccountID: acc.ID,
			Delta:     balance,
			Reason:    account.ReasonPurchase,
		}).Error; err != nil {
			t.Fatalf("create opening transaction: %v", err)
		}
	}
	return acc
}

var nameSeq int

func uniqueName(t *testing.T) string {
	t.Helper()
	nameSeq++
	return "pro_" + t.Name() + "_" + string(rune('a'+nameSeq%26)) + string(rune('0'+nameSeq%10))
}

func newTestRequest(t *testing.T, db *gorm.DB, maxSlots int64) *request.ServiceRequest {
	t.Helper()
	sr := &request.ServiceRequest{
		Title:        "测试需求单",
		ClientName:   "测试客户",
		ContactPhone: "13800000000",
		ContactEmail: "client@example.com",
		Status:       request.StatusOpen,
		MaxSlots:     maxSlots,
	}
	if err := db.Create(sr).Error; err != nil {
		t.Fatalf("create request: %v", err)
	}
	return sr
}

// assertLedgerConsistent 校验余额等于流水之和（核心不变量）
func assertLedgerConsistent(t *testing.T, db *gorm.DB, accountID int64) {
	t.Helper()
	ledger := NewLedgerService(db, nil)
	balance, sum, err := ledger.Reconcile(context.Background(), accountID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if balance != sum {
		t.Errorf("ledger inconsistent: balance=%d tx_sum=%d", balance, sum)
	}
	if balance < 0 {
		t.Errorf("balance went negative: %d", balance)
	}
}
