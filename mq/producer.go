// Package mq Kafka 入站文档消费 + 出站事件发布
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"rfq-match/types"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 事件发布，所有事件写同一个 topic，用 header 区分事件名，key 是文档 ID
type Producer struct {
	w   messageWriter
	log *zap.Logger
}

func NewProducer(brokers []string, topic string, writeTimeout time.Duration, log *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}
	return newProducer(w, log)
}

func newProducer(w messageWriter, log *zap.Logger) *Producer {
	return &Producer{w: w, log: log.Named("producer")}
}

func (p *Producer) PublishDocumentClassified(ctx context.Context, ev types.DocumentClassified) error {
	ev.Event = types.EventDocumentClassified
	return p.publish(ctx, ev.Event, ev.DocumentID, ev)
}

func (p *Producer) PublishSuppliersRanked(ctx context.Context, ev types.SuppliersRanked) error {
	ev.Event = types.EventSuppliersRanked
	return p.publish(ctx, ev.Event, ev.DocumentID, ev)
}

func (p *Producer) publish(ctx context.Context, event, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: "event", Value: []byte(event)}},
	})
	if err != nil {
		return &types.TransientServiceError{Service: "kafka", Err: err}
	}
	p.log.Debug("event published", zap.String("event", event), zap.String("document_id", key))
	return nil
}

func (p *Producer) Close() error {
	return p.w.Close()
}
