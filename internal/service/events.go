package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const coinEventsQueue = "coin_events"

// 事件类型
const (
	EventCredit = "credit" // 充值/赠送/退款入账
	EventDebit  = "debit"  // 解锁扣费
	EventUnlock = "unlock" // 解锁记录创建
	EventRefund = "refund" // 退款单进入终态
)

// CoinEvent 账本事件，提交成功后发往 coin_events 队列。
// 周边系统（通知、对账 worker）各自消费，核心只负责尽力投递。
type CoinEvent struct {
	Type         string    `json:"type"`
	AccountID    int64     `json:"account_id"`
	RequestID    int64     `json:"request_id,omitempty"`
	AllocationID int64     `json:"allocation_id,omitempty"`
	RefundID     int64     `json:"refund_id,omitempty"`
	Amount       int64     `json:"amount"`
	Balance      int64     `json:"balance"`
	At           time.Time `json:"at"`
}

// EventPublisher 账本事件发布器
type EventPublisher struct {
	conn *amqp.Connection
}

// NewEventPublisher 创建发布器，conn 为空时返回 nil（事件流可整体关闭）
func NewEventPublisher(conn *amqp.Connection) *EventPublisher {
	if conn == nil {
		return nil
	}
	return &EventPublisher{conn: conn}
}

// Publish 投递一条账本事件。发布失败只影响事件流，不影响已提交的事务。
func (p *EventPublisher) Publish(ctx context.Context, ev CoinEvent) error {
	if p == nil || p.conn == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(coinEventsQueue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(&ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		"",
		coinEventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
