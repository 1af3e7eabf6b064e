package session

import (
	"sync"
	"time"

	"github.com/datalens-ai/datalens/internal/model"
	"github.com/datalens-ai/datalens/internal/service/analysis"
	"github.com/datalens-ai/datalens/internal/service/table"
)

// FileRecord 单个数据集的会话内状态
// Table 和 Agent 延迟填充：恢复或惰性场景下为 nil，首次使用时加载。
// 两者的生命周期绑定：表格一旦被替换，Agent 必须同时失效，
// 保证非空 Agent 永远对应记录里当前这份表格内容。
//
// Table / Agent / LastModified 只能在持有记录锁时读写。
type FileRecord struct {
	ID       string
	Filename string
	Source   string // file, url
	Path     string
	URL      string

	mu           sync.Mutex
	Table        *table.Table
	Agent        analysis.Agent
	LastModified time.Time
}

// NewRecord 从持久化记录构建会话内记录，Table/Agent 保持未加载
func NewRecord(df *model.DatasetFile) *FileRecord {
	return &FileRecord{
		ID:       df.ID,
		Filename: df.FileName,
		Source:   df.Source,
		Path:     df.FilePath,
		URL:      df.SourceURL,
	}
}

// Lock 获取记录锁
// 加载、刷新、Agent 构建必须在同一个临界区内完成，
// 并发 chat 请求对同一文件的缓存填充靠它互斥
func (r *FileRecord) Lock() { r.mu.Lock() }

// Unlock 释放记录锁
func (r *FileRecord) Unlock() { r.mu.Unlock() }

// ReplaceTable 换入新表格并使 Agent 失效，调用方须持锁
func (r *FileRecord) ReplaceTable(t *table.Table) {
	r.Table = t
	r.Agent = nil
}

// Invalidate 退回未加载状态，调用方须持锁
func (r *FileRecord) Invalidate() {
	r.Table = nil
	r.Agent = nil
}
