package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"rfq-match/monitor"
	"rfq-match/types"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler 处理一个入站文档；返回 TransientServiceError 时会重试
type Handler func(ctx context.Context, doc *types.Document) error

// Consumer 至少一次语义：处理成功后才提交 offset。
// 消息格式错误、非临时错误、重试耗尽都会提交，避免毒消息卡住分区
type Consumer struct {
	r               messageReader
	handle          Handler
	log             *zap.Logger
	maxTries        uint
	initialInterval time.Duration
}

type ConsumerOption func(*Consumer)

func WithMaxTries(n int) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.maxTries = uint(n)
		}
	}
}

func WithRetryInterval(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.initialInterval = d }
}

func NewConsumer(brokers []string, topic, group string, handle Handler, log *zap.Logger, opts ...ConsumerOption) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     group,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(r, handle, log, opts...)
}

func newConsumer(r messageReader, handle Handler, log *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		r:               r,
		handle:          handle,
		log:             log.Named("consumer"),
		maxTries:        3,
		initialInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run 阻塞消费直到 ctx 取消
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("fetch message failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.initialInterval):
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			// 只有 ctx 取消会走到这里，不提交，重启后重新投递
			return nil
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// process 返回 error 表示不应提交
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	doc, err := decodeDocument(msg.Value)
	if err != nil {
		monitor.MessagesConsumed.WithLabelValues("invalid").Inc()
		c.log.Warn("skip invalid message",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.handle(ctx, doc)
		if err != nil && (ctx.Err() != nil || !types.IsTransient(err)) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err != nil {
			c.log.Warn("handle document failed, retrying",
				zap.String("document_id", doc.ID), zap.Int("attempt", attempt), zap.Error(err))
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		monitor.MessagesConsumed.WithLabelValues("failed").Inc()
		c.log.Error("drop document after failures", zap.String("document_id", doc.ID), zap.Error(err))
		return nil
	}
	monitor.MessagesConsumed.WithLabelValues("ok").Inc()
	return nil
}

var errMissingID = errors.New("document id is required")

func decodeDocument(value []byte) (*types.Document, error) {
	var doc types.Document
	if err := json.Unmarshal(value, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.ID == "" {
		return nil, errMissingID
	}
	return &doc, nil
}

func (c *Consumer) Close() error {
	return c.r.Close()
}
