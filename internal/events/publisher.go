package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CabPortal/CabPortal/internal/common/config"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event 一条记录提交事件（booking/complaint/feedback/query/suggestion）。
// 表里的行才是事实来源；事件只做下游通知，发布失败不回滚提交。
type Event struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Username    string    `json:"username"`
	RecordID    int64     `json:"record_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Publisher 提交事件发布接口。
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NewPublisher 按配置构建 Publisher；未配置 brokers 时返回 NopPublisher。
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "portal-submissions"
	}
	return NewKafkaPublisher(cfg.Brokers, topic)
}

// NopPublisher 空实现。
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// KafkaPublisher 将事件以 JSON 写入 Kafka topic，key 为事件 kind。
type KafkaPublisher struct {
	writer  *kafka.Writer
	breaker *Breaker
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		breaker: NewBreaker(5, 30*time.Second),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("kafka writer is nil")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(ev.Kind),
		Value: payload,
	}
	return p.breaker.Call(func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
