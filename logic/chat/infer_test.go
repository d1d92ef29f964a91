package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rfq-match/types"
)

// scriptedModel 按顺序返回预设的结果
type scriptedModel struct {
	replies []reply
	calls   int
}

type reply struct {
	content string
	err     error
}

func (s *scriptedModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	r := s.replies[min(s.calls, len(s.replies)-1)]
	s.calls++
	if r.err != nil {
		return nil, r.err
	}
	return schema.AssistantMessage(r.content, nil), nil
}

func (s *scriptedModel) Stream(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type sample struct {
	Title string `json:"title" jsonschema:"description=solicitation title"`
}

func newTestInferencer(m model.BaseChatModel) *ModelInferencer {
	return NewModelInferencer(m, zap.NewNop(),
		WithInitialInterval(time.Millisecond),
		WithTimeout(time.Second),
		WithMaxTries(3))
}

func TestInferParsesFencedJSON(t *testing.T) {
	m := &scriptedModel{replies: []reply{{content: "```json\n{\"title\": \"Laptops\", \"confidence\": 0.85}\n```"}}}

	fields, conf, err := newTestInferencer(m).Infer(context.Background(), "extract", SchemaFor[sample]())
	require.NoError(t, err)
	assert.Equal(t, "Laptops", fields["title"])
	assert.InDelta(t, 0.85, conf, 1e-9)
	assert.NotContains(t, fields, "confidence")
	assert.Equal(t, 1, m.calls)
}

func TestInferClampsConfidence(t *testing.T) {
	m := &scriptedModel{replies: []reply{{content: `Sure! {"title": "x", "confidence": 7}`}}}

	_, conf, err := newTestInferencer(m).Infer(context.Background(), "extract", SchemaFor[sample]())
	require.NoError(t, err)
	assert.Equal(t, 1.0, conf)
}

func TestInferRetriesTransientFailures(t *testing.T) {
	m := &scriptedModel{replies: []reply{
		{err: errors.New("status 503: service unavailable")},
		{content: "not json at all"},
		{content: `{"title": "ok", "confidence": 0.6}`},
	}}

	fields, conf, err := newTestInferencer(m).Infer(context.Background(), "extract", SchemaFor[sample]())
	require.NoError(t, err)
	assert.Equal(t, "ok", fields["title"])
	assert.InDelta(t, 0.6, conf, 1e-9)
	assert.Equal(t, 3, m.calls)
}

func TestInferGivesUpAfterMaxTries(t *testing.T) {
	m := &scriptedModel{replies: []reply{{err: errors.New("429 rate limit exceeded")}}}

	_, _, err := newTestInferencer(m).Infer(context.Background(), "extract", SchemaFor[sample]())
	require.Error(t, err)
	var te *types.TransientServiceError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, 3, m.calls)
}

func TestInferPermanentErrorNotRetried(t *testing.T) {
	m := &scriptedModel{replies: []reply{{err: errors.New("401 invalid api key")}}}

	_, _, err := newTestInferencer(m).Infer(context.Background(), "extract", SchemaFor[sample]())
	require.Error(t, err)
	assert.False(t, types.IsTransient(err))
	assert.Equal(t, 1, m.calls)
}

func TestParseJSONObject(t *testing.T) {
	out, err := ParseJSONObject("```\n{\"a\": {\"b\": 1}}\n```")
	require.NoError(t, err)
	assert.Contains(t, out, "a")

	_, err = ParseJSONObject("no braces")
	assert.ErrorIs(t, err, errMalformed)
}

func TestSchemaForDisallowsAdditionalProperties(t *testing.T) {
	s := SchemaFor[sample]()
	require.NotNil(t, s.Properties)
	prop, ok := s.Properties.Get("title")
	require.True(t, ok)
	assert.Equal(t, "solicitation title", prop.Description)
}
