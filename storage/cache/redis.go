package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rfq-match/monitor"
	"rfq-match/types"
)

const keyPrefix = "rfq:matches:"

// redisClient 只用到的几个命令，测试时可以替换
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// MatchCache 文档排序结果的读缓存，PG 是唯一的真实来源
type MatchCache struct {
	rdb redisClient
	ttl time.Duration
	log *zap.Logger
}

// NewRedisClient 连接并 ping 一次
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func NewMatchCache(rdb redisClient, ttl time.Duration, log *zap.Logger) *MatchCache {
	return &MatchCache{rdb: rdb, ttl: ttl, log: log}
}

func matchKey(documentID string) string {
	return keyPrefix + documentID
}

// Get 未命中时返回 ok=false；缓存内容损坏按未命中处理
func (c *MatchCache) Get(ctx context.Context, documentID string) ([]types.StoredMatch, bool, error) {
	raw, err := c.rdb.Get(ctx, matchKey(documentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		monitor.CacheRequests.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		monitor.CacheRequests.WithLabelValues("error").Inc()
		return nil, false, err
	}
	var matches []types.StoredMatch
	if err := json.Unmarshal(raw, &matches); err != nil {
		c.log.Warn("丢弃损坏的缓存", zap.String("document_id", documentID), zap.Error(err))
		monitor.CacheRequests.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	monitor.CacheRequests.WithLabelValues("hit").Inc()
	return matches, true, nil
}

func (c *MatchCache) Set(ctx context.Context, documentID string, matches []types.StoredMatch) error {
	payload, err := json.Marshal(matches)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, matchKey(documentID), payload, c.ttl).Err()
}

// Invalidate 重新排序后调用
func (c *MatchCache) Invalidate(ctx context.Context, documentID string) error {
	return c.rdb.Del(ctx, matchKey(documentID)).Err()
}
