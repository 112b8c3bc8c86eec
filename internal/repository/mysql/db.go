package mysql

import (
	"log"
	"sync"
	"time"

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

var (
	db   *gorm.DB
	once sync.Once
)

// Init 初始化全局 GORM 实例并自动迁移业务表。
// 迁移顺序照依赖排列：先账户主体，再需求单，最后解锁与退款。
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("mysql pool: %v", err)
		}
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)

		if err = db.AutoMigrate(
			&professional.Professional{},
			&account.Account{},
			&account.Transaction{},
			&request.ServiceRequest{},
			&allocation.Allocation{},
			&refund.RefundRequest{},
		); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}
