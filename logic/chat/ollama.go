package chat

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"rfq-match/vars"
)

// ModelConfig 模型连接参数
type ModelConfig struct {
	Provider string // ollama / openai
	BaseURL  string
	APIKey   string
	Model    string
}

// NewChatModel 按 Provider 创建对话模型，下游只依赖 model.BaseChatModel
func NewChatModel(ctx context.Context, cfg ModelConfig) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case vars.ProviderOllama, "":
		return CreateOllamaChatModel(ctx, cfg.BaseURL, cfg.Model)
	case vars.ProviderOpenAI:
		return CreateOpenAIChatModel(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func CreateOllamaChatModel(ctx context.Context, url string, modelName string) (model.ToolCallingChatModel, error) {
	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: url,       // Ollama 服务地址
		Model:   modelName, // 模型名称
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama chat model failed: %w", err)
	}
	return chatModel, nil
}

// CreateOpenAIChatModel 兼容 OpenAI 协议的服务 (BaseURL 为空时用官方地址)
func CreateOpenAIChatModel(ctx context.Context, baseURL, apiKey, modelName string) (model.ToolCallingChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model failed: %w", err)
	}
	return chatModel, nil
}
