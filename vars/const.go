package vars

import (
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

var dotenvOnce sync.Once

// 开发环境从 .env 读取配置，文件不存在时忽略；已存在的环境变量不会被覆盖
func loadDotEnv() {
	_ = godotenv.Load(".env")
}

// GetEnv 获取环境变量，如果不存在则返回默认值
func GetEnv(key, fallback string) string {
	dotenvOnce.Do(loadDotEnv)
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvInt 解析失败同样返回默认值
func GetEnvInt(key string, fallback int) int {
	raw := GetEnv(key, "")
	v, err := cast.ToIntE(raw)
	if err != nil || raw == "" {
		return fallback
	}
	return v
}

func GetEnvFloat(key string, fallback float64) float64 {
	raw := GetEnv(key, "")
	v, err := cast.ToFloat64E(raw)
	if err != nil || raw == "" {
		return fallback
	}
	return v
}

func GetEnvBool(key string, fallback bool) bool {
	raw := GetEnv(key, "")
	v, err := cast.ToBoolE(raw)
	if err != nil || raw == "" {
		return fallback
	}
	return v
}

// GetEnvDuration 支持 "30s" 这类写法
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := GetEnv(key, "")
	v, err := cast.ToDurationE(raw)
	if err != nil || raw == "" {
		return fallback
	}
	return v
}

const (
	// 模型名称
	NOMIC  = "nomic-embed-text"
	QWEN7B = "qwen2.5:7b"
	QWEN3B = "qwen2.5:3b"

	// Milvus Collection 名称
	COLLECTION = "supplier_catalog_v1"
	// ES 索引
	SUPPLIER_INDEX = "supplier_catalog_v1"

	// 模型提供方
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// 环境变量配置（支持 Docker 部署）
var (
	APP_ENV   = GetEnv("APP_ENV", "development")
	LOG_LEVEL = GetEnv("LOG_LEVEL", "info")
	HTTP_ADDR = GetEnv("HTTP_ADDR", ":8081")

	// LLM
	LLM_PROVIDER   = GetEnv("LLM_PROVIDER", ProviderOllama)
	LLM_MODEL      = GetEnv("LLM_MODEL", QWEN7B)
	LLM_TIMEOUT    = GetEnvDuration("LLM_TIMEOUT", 30*time.Second)
	LLM_MAX_TRIES  = GetEnvInt("LLM_MAX_TRIES", 3)
	OPENAI_API_KEY = GetEnv("OPENAI_API_KEY", "")
	OPENAI_BASEURL = GetEnv("OPENAI_BASEURL", "")

	// OLLAMA
	OLLAMA_PATH = GetEnv("OLLAMA_PATH", "http://localhost:11434")

	// PG
	PGUSER = GetEnv("PGUSER", "root")
	PGPWD  = GetEnv("PGPWD", "")
	PGDB   = GetEnv("PGDB", "rfq")
	PGHOST = GetEnv("PGHOST", "localhost")
	PGPORT = GetEnv("PGPORT", "5432")

	// Milvus，留空则不启用语义召回
	MILVUSADDR = GetEnv("MILVUSADDR", "")

	// ES，留空则不启用全文召回
	ESADDR = GetEnv("ESADDR", "")

	// Redis，留空则不缓存
	REDISADDR = GetEnv("REDISADDR", "")
	REDISPWD  = GetEnv("REDISPWD", "")
	MATCH_TTL = GetEnvDuration("MATCH_CACHE_TTL", 10*time.Minute)

	// Kafka，留空则不启动消费者
	KAFKA_BROKERS       = GetEnv("KAFKA_BROKERS", "")
	KAFKA_INBOUND       = GetEnv("KAFKA_INBOUND_TOPIC", "rfq.documents")
	KAFKA_EVENTS        = GetEnv("KAFKA_EVENTS_TOPIC", "rfq.events")
	KAFKA_GROUP         = GetEnv("KAFKA_GROUP", "rfq-match")
	KAFKA_WRITE_TIMEOUT = GetEnvDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second)

	// 匹配
	MATCH_TOP_N   = GetEnvInt("MATCH_TOP_N", 10)
	MATCH_WORKERS = GetEnvInt("MATCH_WORKERS", 8)
	RECALL_TOP_K  = GetEnvInt("RECALL_TOP_K", 50)

	// 定时任务
	REINDEX_SPEC = GetEnv("REINDEX_SPEC", "0 0 2 * * *")
)
