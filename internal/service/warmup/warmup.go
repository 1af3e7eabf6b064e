// Package warmup 在上传/连接响应返回后预热分析 Agent
// 后台任务，用户首个问题不必承担全部冷启动延迟
package warmup

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/datalens-ai/datalens/internal/service/analysis"
	"github.com/datalens-ai/datalens/internal/service/ingest"
	"github.com/datalens-ai/datalens/internal/service/session"
)

// warmupTimeout 单个预热任务的时间预算
const warmupTimeout = 2 * time.Minute

// Warmer 预热器，有界工作池按文件 id 派发任务
type Warmer struct {
	sessions *session.Manager
	monitor  *ingest.Service
	engine   analysis.Engine
	group    *errgroup.Group
}

// NewWarmer 创建预热器
func NewWarmer(sessions *session.Manager, monitor *ingest.Service, engine analysis.Engine, workers int) *Warmer {
	if workers <= 0 {
		workers = 4
	}
	g := new(errgroup.Group)
	g.SetLimit(workers)
	return &Warmer{
		sessions: sessions,
		monitor:  monitor,
		engine:   engine,
		group:    g,
	}
}

// Schedule 调度一次预热，立即返回
// 任务失败只记日志，绝不影响触发它的前台请求
func (w *Warmer) Schedule(userID, fileID string) {
	w.group.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
		defer cancel()
		w.warm(ctx, userID, fileID)
		return nil
	})
}

// Wait 等待在途任务结束，进程退出前调用
func (w *Warmer) Wait() {
	_ = w.group.Wait()
}

// warm 执行预热
// 记录在任务运行前被删除或会话已不在时退化为 no-op
func (w *Warmer) warm(ctx context.Context, userID, fileID string) {
	state := w.sessions.Peek(userID)
	if state == nil {
		return
	}
	rec := state.File(fileID)
	if rec == nil {
		return
	}

	log.Printf("Warming up agent for user %s, file %s...", userID, fileID)

	rec.Lock()
	defer rec.Unlock()

	if rec.Agent != nil {
		return
	}

	tbl, err := w.monitor.EnsureFresh(ctx, rec)
	if err != nil {
		log.Printf("Warning: warmup load failed for %s: %v", fileID, err)
		return
	}

	agent, err := w.engine.NewAgent(ctx, tbl)
	if err != nil {
		log.Printf("Warning: warmup agent build failed for %s: %v", fileID, err)
		return
	}
	rec.Agent = agent

	// 预热查询逼引擎提前吃进表结构
	if _, err := agent.Ask(ctx, "Briefly list the columns of this dataset."); err != nil {
		log.Printf("Warning: warmup priming query failed for %s: %v", fileID, err)
	}

	log.Printf("Agent warmed up for %s", rec.Filename)
}
