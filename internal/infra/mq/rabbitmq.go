package mq

import (
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/profinder/internal/config"
)

var (
	conn *amqp.Connection
	once sync.Once
)

// Init 建立 RabbitMQ 连接，金币事件经由它投递给对账进程。
// 连接意外断开时记日志，事件发布方会按发布失败计数。
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		c, err := amqp.DialConfig(cfg.URL, amqp.Config{
			Properties: amqp.Table{"connection_name": "profinder"},
		})
		if err != nil {
			log.Fatalf("rabbitmq %s: %v", cfg.URL, err)
		}
		go func() {
			if reason := <-c.NotifyClose(make(chan *amqp.Error, 1)); reason != nil {
				log.Printf("rabbitmq connection closed: %v", reason)
			}
		}()
		conn = c
	})
	return conn
}

// Conn 获取已初始化的连接，未初始化时为 nil
func Conn() *amqp.Connection {
	return conn
}
