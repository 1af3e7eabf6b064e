// Package insight 编排一次分析问答
// 解析目标文件、保证数据新鲜、复用或重建 Agent、发问并归一化结果
package insight

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/datalens-ai/datalens/internal/service/analysis"
	"github.com/datalens-ai/datalens/internal/service/ingest"
	"github.com/datalens-ai/datalens/internal/service/session"
	"github.com/datalens-ai/datalens/internal/service/table"
)

// ErrNoActiveFile 没有可解析的目标文件
var ErrNoActiveFile = errors.New("no active file selected")

// instructionSuffix 附加在用户问题之后的结构化输出指令
// 引擎被要求优先可视化，并把最终答案包成 {type:"string", value:<json>} 信封
const instructionSuffix = `

TASK:
1. ALWAYS PREFER VISUALIZATION over simple text.
2. For "Top N" or "Distribution" or "Comparison" queries, ALWAYS return a "chart" widget with the data.
3. Even for singular values, return a LIST containing [{"vis_type": "kpi", ...}, {"vis_type": "chart", ...}] if possible.

REQUIRED OUTPUT FORMAT:
You MUST return the result as a JSON object exactly like this:
{"type": "string", "value": "<JSON-encoded YOUR_DATA>"}

WHERE YOUR_DATA is either:
- A single widget object: {"vis_type": "...", "payload": ...}
- OR a LIST of widgets: [{"vis_type": "...", ...}, {"vis_type": "...", ...}]`

// Service 问答编排服务
type Service struct {
	sessions *session.Manager
	monitor  *ingest.Service
	engine   analysis.Engine
}

// NewService 创建问答编排服务
func NewService(sessions *session.Manager, monitor *ingest.Service, engine analysis.Engine) *Service {
	return &Service{
		sessions: sessions,
		monitor:  monitor,
		engine:   engine,
	}
}

// Answer 回答一个针对数据集的问题
// fileID 为空时使用会话活跃文件；引擎故障不向上传播，
// 降级为文本结果以保住对话连续性
func (s *Service) Answer(ctx context.Context, userID, fileID, question string) (Result, error) {
	state := s.sessions.GetOrCreate(userID)
	rec := state.Resolve(fileID)
	if rec == nil {
		return Result{}, ErrNoActiveFile
	}

	rec.Lock()
	defer rec.Unlock()

	tbl, err := s.monitor.EnsureFresh(ctx, rec)
	if err != nil {
		return Result{}, err
	}

	prompt := s.buildPrompt(tbl, question)

	agent := rec.Agent
	if agent == nil {
		log.Printf("Initializing new analysis agent for %s...", rec.Filename)
		agent, err = s.engine.NewAgent(ctx, tbl)
		if err != nil {
			return Result{Text: "Analysis failed: " + err.Error()}, nil
		}
		rec.Agent = agent
	}

	raw, err := agent.Ask(ctx, prompt)
	if err != nil {
		return Result{Text: "Analysis failed: " + err.Error()}, nil
	}

	return Normalize(raw), nil
}

// buildPrompt 拼装问题、领域上下文与结构化输出指令
func (s *Service) buildPrompt(tbl *table.Table, question string) string {
	context := table.DetectDomainContext(tbl.Columns)

	wideHint := ""
	if table.DetectWideFormatDates(tbl.Columns) {
		wideHint = "\nDATA STRUCTURE HINT: Wide Format Time Series."
	}

	return fmt.Sprintf("%s\n\nCONTEXT: %s%s%s", question, context, wideHint, instructionSuffix)
}
