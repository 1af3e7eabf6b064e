// Package analysis 封装外部 AI 分析引擎
// 引擎对上层是不透明能力：给定表格构建 Agent，向 Agent 提问得到原始文本结果
package analysis

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/datalens-ai/datalens/internal/config"
	"github.com/datalens-ai/datalens/internal/service/table"
)

// Agent 绑定到一份表格内容的分析会话句柄
// 表格被替换后句柄必须废弃，由上层重新构建
type Agent interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Engine 分析引擎
type Engine interface {
	NewAgent(ctx context.Context, tbl *table.Table) (Agent, error)
}

// promptSampleRows 注入系统提示词的样例行数
const promptSampleRows = 20

// OpenAIEngine 基于 eino ChatModel 的引擎实现
type OpenAIEngine struct {
	cfg   *config.AIConfig
	cache *answerCache
}

// NewOpenAIEngine 创建引擎
// redisClient 可为 nil，此时禁用答案缓存
func NewOpenAIEngine(cfg *config.AIConfig, redisClient *redis.Client) *OpenAIEngine {
	return &OpenAIEngine{
		cfg:   cfg,
		cache: newAnswerCache(redisClient),
	}
}

// NewAgent 构建绑定当前表格的 Agent
// ChatModel 构建加上表结构提示词是昂贵的冷启动步骤，构建结果由调用方缓存
func (e *OpenAIEngine) NewAgent(ctx context.Context, tbl *table.Table) (Agent, error) {
	aiCfg := e.cfg.OpenAI
	if aiCfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", e.cfg.Provider)
	}

	modelName := aiCfg.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	temperature := float32(0.2)
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      aiCfg.APIKey,
		BaseURL:     aiCfg.BaseURL,
		Model:       modelName,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	system := fmt.Sprintf(
		"You are an intelligent Data Analytics Engine operating on the following dataset.\n%s",
		tbl.PromptContext(promptSampleRows),
	)

	return &chatAgent{
		model:       chatModel,
		system:      system,
		cache:       e.cache,
		fingerprint: tbl.Fingerprint(),
	}, nil
}

// chatAgent Agent 实现，绑定一份表格内容的系统提示词
type chatAgent struct {
	model       model.ChatModel
	system      string
	cache       *answerCache
	fingerprint string
}

// Ask 向引擎提问
func (a *chatAgent) Ask(ctx context.Context, question string) (string, error) {
	if answer, ok := a.cache.Get(ctx, a.fingerprint, question); ok {
		return answer, nil
	}

	messages := []*schema.Message{
		schema.SystemMessage(a.system),
		schema.UserMessage(question),
	}

	resp, err := a.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("analysis engine request failed: %w", err)
	}

	a.cache.Set(ctx, a.fingerprint, question, resp.Content)
	return resp.Content, nil
}
