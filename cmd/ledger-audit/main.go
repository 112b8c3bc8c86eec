package main

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/profinder/internal/config"
	"github.com/example/profinder/internal/infra/mq"
	"github.com/example/profinder/internal/repository/mysql"
	"github.com/example/profinder/internal/service"
)

// ledger-audit 消费账本事件，对事件涉及的账户做
// “余额 == 流水之和” 的持续对账，发现不一致立即告警日志并计数。

const coinEventsQueue = "coin_events"

func main() {
	cfg := config.DefaultConfig()

	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)

	ledgerSvc := service.NewLedgerService(db, nil)

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(coinEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// 手动确认模式，处理失败的消息重新入队
	msgs, err := ch.Consume(coinEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Println("ledger-audit worker started, waiting for events...")

	for d := range msgs {
		var ev service.CoinEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Printf("invalid event: %v", err)
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}
		handleEvent(context.Background(), ledgerSvc, &ev, d)
	}
}

func handleEvent(ctx context.Context, ledgerSvc *service.LedgerService, ev *service.CoinEvent, d amqp.Delivery) {
	balance, sum, err := ledgerSvc.Reconcile(ctx, ev.AccountID)
	if err != nil {
		log.Printf("reconcile account %d failed: %v", ev.AccountID, err)
		service.GetMonitor().RecordDBError()
		// 拒绝消息并重新入队
		_ = d.Nack(false, true)
		return
	}

	mismatch := balance != sum
	service.GetMonitor().RecordAuditCheck(mismatch)
	if mismatch {
		// 余额与流水脱节意味着有绕过账本的写入，必须人工介入
		log.Printf("AUDIT MISMATCH account=%d balance=%d tx_sum=%d event=%s", ev.AccountID, balance, sum, ev.Type)
	} else {
		log.Printf("audit ok account=%d balance=%d event=%s", ev.AccountID, balance, ev.Type)
	}

	if err := d.Ack(false); err != nil {
		log.Printf("failed to ack message: %v", err)
	}
}
