// Package ingest 负责数据集接入与新鲜度保证
// 上传文件落盘、远程表格连接、每轮对话前的来源变更检测都在这里
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/datalens-ai/datalens/internal/config"
	"github.com/datalens-ai/datalens/internal/model"
	"github.com/datalens-ai/datalens/internal/repository"
	"github.com/datalens-ai/datalens/internal/service/session"
	"github.com/datalens-ai/datalens/internal/service/table"
)

// ErrPermissionDenied 远程表格未公开，需要用户提供公开链接
var ErrPermissionDenied = errors.New("remote sheet is private")

// uploadSubdir 默认上传目录名，删除文件时以此判断磁盘副本归属
const uploadSubdir = "datalens_uploads"

// 伪装浏览器 UA，部分表格服务对默认 Go UA 返回拒绝页
const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Service 数据接入服务
type Service struct {
	cfg         *config.Config
	datasets    repository.DatasetRepository
	client      *http.Client
	titleClient *http.Client
}

// NewService 创建数据接入服务，网络请求均带有界超时
func NewService(cfg *config.Config, datasets repository.DatasetRepository) *Service {
	return &Service{
		cfg:      cfg,
		datasets: datasets,
		client: &http.Client{
			Timeout: time.Duration(cfg.Ingest.FetchTimeout) * time.Second,
		},
		titleClient: &http.Client{
			Timeout: time.Duration(cfg.Ingest.TitleTimeout) * time.Second,
		},
	}
}

// UploadDir 上传文件存放目录
func (s *Service) UploadDir() string {
	if s.cfg.Upload.Dir != "" {
		return s.cfg.Upload.Dir
	}
	return filepath.Join(os.TempDir(), uploadSubdir)
}

// SaveUpload 保存上传文件并加载表格
// 先写持久化记录拿到稳定 id，会话内 FileRecord 沿用同一 id，
// 进程重启后恢复会话仍指向同一条记录
func (s *Service) SaveUpload(ctx context.Context, userID, filename string, src io.Reader) (*session.FileRecord, error) {
	dir := s.UploadDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(filename))
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	dst.Close()

	tbl, err := table.Load(path)
	if err != nil {
		return nil, err
	}

	df := &model.DatasetFile{
		ID:       uuid.New().String(),
		UserID:   userID,
		FileName: filepath.Base(filename),
		FilePath: path,
		Source:   model.SourceFile,
	}
	if err := s.datasets.Create(df); err != nil {
		return nil, fmt.Errorf("failed to save dataset record: %w", err)
	}

	rec := session.NewRecord(df)
	rec.ReplaceTable(tbl)
	if info, serr := os.Stat(path); serr == nil {
		rec.LastModified = info.ModTime()
	}
	return rec, nil
}

// ConnectURL 连接远程表格
// Google Sheets 分享链接被改写为 CSV 导出链接并尽力抓取表名；
// 返回 HTML 的响应视为权限错误而非数据
func (s *Service) ConnectURL(ctx context.Context, userID, rawURL string) (*session.FileRecord, error) {
	rawURL = strings.TrimSpace(rawURL)
	title := "Remote Sheet Data"

	fetchURL, sheetID, err := ResolveSheetURL(rawURL)
	if err != nil {
		return nil, err
	}
	if sheetID != "" {
		if t, err := s.fetchSheetTitle(ctx, sheetID); err == nil && t != "" {
			title = t
		}
	}

	body, err := s.fetch(ctx, fetchURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "datalens-*.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to download sheet: %w", err)
	}
	tmp.Close()

	tbl, err := table.Load(tmp.Name())
	if err != nil {
		return nil, err
	}

	df := &model.DatasetFile{
		ID:        uuid.New().String(),
		UserID:    userID,
		FileName:  title + ".csv",
		FilePath:  tmp.Name(),
		Source:    model.SourceURL,
		SourceURL: fetchURL,
	}
	if err := s.datasets.Create(df); err != nil {
		return nil, fmt.Errorf("failed to save dataset record: %w", err)
	}

	rec := session.NewRecord(df)
	rec.ReplaceTable(tbl)
	return rec, nil
}

// Delete 删除数据集：持久化记录加磁盘临时副本
func (s *Service) Delete(ctx context.Context, fileID, path string) error {
	if err := s.datasets.Delete(fileID); err != nil {
		return fmt.Errorf("failed to delete dataset record: %w", err)
	}
	if err := s.RemoveFromDisk(path); err != nil {
		log.Printf("Warning: could not delete file from disk: %v", err)
	}
	return nil
}

// RemoveFromDisk 删除数据集的磁盘副本
// 只清理本服务自建的临时文件，用户指定目录之外的路径不动
func (s *Service) RemoveFromDisk(path string) error {
	if path == "" {
		return nil
	}
	if !strings.Contains(path, uploadSubdir) && !strings.HasPrefix(path, os.TempDir()) {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// fetch 拉取远程表格内容
func (s *Service) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		resp.Body.Close()
		return nil, ErrPermissionDenied
	}
	return resp.Body, nil
}

// IsTimeout 判断错误是否为网络超时，供上层给出专门提示
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
