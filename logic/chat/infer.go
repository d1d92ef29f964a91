package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"rfq-match/monitor"
	"rfq-match/types"
)

const systemPrompt = `You extract structured data from procurement documents.
Reply with a single JSON object that validates against this JSON Schema and nothing else:
%s`

// SchemaFor 为输出结构生成 JSON Schema，结构体上的 jsonschema tag 会作为字段说明
func SchemaFor[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// ModelInferencer 把一次结构化抽取包装成: 单次超时 + 指数退避重试 + JSON 解析
type ModelInferencer struct {
	model           model.BaseChatModel
	log             *zap.Logger
	timeout         time.Duration
	maxTries        uint
	initialInterval time.Duration
}

type InferOption func(*ModelInferencer)

func WithTimeout(d time.Duration) InferOption {
	return func(m *ModelInferencer) { m.timeout = d }
}

func WithMaxTries(n int) InferOption {
	return func(m *ModelInferencer) {
		if n > 0 {
			m.maxTries = uint(n)
		}
	}
}

// WithInitialInterval 第一次重试前的等待时间，测试里调小
func WithInitialInterval(d time.Duration) InferOption {
	return func(m *ModelInferencer) { m.initialInterval = d }
}

func NewModelInferencer(cm model.BaseChatModel, log *zap.Logger, opts ...InferOption) *ModelInferencer {
	m := &ModelInferencer{
		model:           cm,
		log:             log.Named("inferencer"),
		timeout:         30 * time.Second,
		maxTries:        3,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Infer 返回解析后的字段和模型自报的置信度 (从 "confidence" 字段取出并裁剪到 [0,1])
// 重试耗尽返回 *types.TransientServiceError
func (m *ModelInferencer) Infer(ctx context.Context, prompt string, outSchema *jsonschema.Schema) (map[string]any, float64, error) {
	schemaJSON, err := json.Marshal(outSchema)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal output schema: %w", err)
	}
	messages := []*schema.Message{
		schema.SystemMessage(fmt.Sprintf(systemPrompt, schemaJSON)),
		schema.UserMessage(prompt),
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.initialInterval

	start := time.Now()
	attempt := 0
	fields, err := backoff.Retry(ctx, func() (map[string]any, error) {
		attempt++
		out, err := m.generate(ctx, messages)
		if err != nil {
			m.log.Warn("model call failed", zap.Int("attempt", attempt), zap.Error(err))
			if ctx.Err() != nil || !isRetryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return out, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(m.maxTries))
	if err != nil {
		monitor.ModelCallDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		if isRetryable(err) {
			return nil, 0, &types.TransientServiceError{Service: "llm", Err: err}
		}
		return nil, 0, err
	}
	monitor.ModelCallDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	confidence := clamp01(cast.ToFloat64(fields["confidence"]))
	delete(fields, "confidence")
	return fields, confidence, nil
}

func (m *ModelInferencer) generate(ctx context.Context, messages []*schema.Message) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.model.Generate(callCtx, messages)
	if err != nil {
		return nil, err
	}
	return ParseJSONObject(resp.Content)
}

// errMalformed 模型输出不是合法 JSON，重新采样通常能恢复
var errMalformed = errors.New("malformed model output")

// ParseJSONObject 去掉 ```json 包裹，截取最外层的 {...} 后解析
func ParseJSONObject(content string) (map[string]any, error) {
	jsonStr := strings.TrimSpace(content)
	jsonStr = strings.TrimPrefix(jsonStr, "```json")
	jsonStr = strings.TrimPrefix(jsonStr, "```")
	jsonStr = strings.TrimSuffix(jsonStr, "```")

	start := strings.Index(jsonStr, "{")
	end := strings.LastIndex(jsonStr, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no json object in %q", errMalformed, truncate(content, 200))
	}
	jsonStr = jsonStr[start : end+1]

	var out map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return nil, fmt.Errorf("%w: %v, raw: %s", errMalformed, err, truncate(jsonStr, 200))
	}
	return out, nil
}

// isRetryable 超时、限流、5xx、网络抖动和格式错误可以重试；鉴权、参数错误不重试
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errMalformed) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *types.TransientServiceError
	if errors.As(err, &te) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "429", "rate limit", "500", "502", "503", "504",
		"connection refused", "connection reset", "eof", "temporarily unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
