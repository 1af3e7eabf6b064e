package ingest

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/datalens-ai/datalens/internal/model"
	"github.com/datalens-ai/datalens/internal/service/session"
	"github.com/datalens-ai/datalens/internal/service/table"
)

// EnsureFresh 保证记录中的表格与底层来源一致，每轮对话前调用
// 调用方必须持有记录锁。
//
// url 来源：每轮无条件重新拉取；拉取失败不致命，继续用最后一份好数据。
// file 来源：磁盘修改时间严格新于记录时间戳才重载。
// 表格被替换的同时缓存 Agent 失效，下一次提问基于新数据重建。
func (s *Service) EnsureFresh(ctx context.Context, rec *session.FileRecord) (*table.Table, error) {
	if rec.Source == model.SourceURL && rec.URL != "" {
		return s.refreshURL(ctx, rec)
	}
	return s.refreshFile(rec)
}

// refreshURL url 来源的刷新
func (s *Service) refreshURL(ctx context.Context, rec *session.FileRecord) (*table.Table, error) {
	body, err := s.fetch(ctx, rec.URL)
	if err == nil {
		tbl, perr := table.Parse(body)
		body.Close()
		if perr == nil {
			rec.ReplaceTable(tbl)
			return rec.Table, nil
		}
		err = perr
	}

	log.Printf("Warning: auto-refresh failed for %s: %v", rec.Filename, err)

	// 没拉到新数据：有最后一份好数据就继续用，
	// 否则退回磁盘副本做首次加载
	if rec.Table != nil {
		return rec.Table, nil
	}
	tbl, lerr := table.Load(rec.Path)
	if lerr != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", rec.Filename, err)
	}
	rec.ReplaceTable(tbl)
	return rec.Table, nil
}

// refreshFile file 来源的惰性加载与变更检测
func (s *Service) refreshFile(rec *session.FileRecord) (*table.Table, error) {
	if rec.Table == nil {
		tbl, err := table.Load(rec.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset %s: %w", rec.Filename, err)
		}
		rec.ReplaceTable(tbl)
		if info, serr := os.Stat(rec.Path); serr == nil {
			rec.LastModified = info.ModTime()
		}
		return rec.Table, nil
	}

	info, err := os.Stat(rec.Path)
	if err != nil {
		log.Printf("Warning: failed to stat %s: %v", rec.Path, err)
		return rec.Table, nil
	}

	if info.ModTime().After(rec.LastModified) {
		log.Printf("File change detected for %s, reloading...", rec.Filename)
		tbl, err := table.Load(rec.Path)
		if err != nil {
			log.Printf("Warning: reload failed for %s: %v", rec.Filename, err)
			return rec.Table, nil
		}
		rec.ReplaceTable(tbl)
		rec.LastModified = info.ModTime()
	}

	return rec.Table, nil
}
