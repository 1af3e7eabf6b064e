package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

var (
	sheetIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)
	gidPattern     = regexp.MustCompile(`[#&]gid=([0-9]+)`)
	titlePattern   = regexp.MustCompile(`<title>(.*?) - Google Sheets</title>`)
)

// ResolveSheetURL 将 Google Sheets 分享链接改写为 CSV 导出链接
// 非 Google Sheets 链接原样返回，sheetID 为空
func ResolveSheetURL(rawURL string) (exportURL, sheetID string, err error) {
	if !strings.Contains(rawURL, "docs.google.com/spreadsheets") {
		return rawURL, "", nil
	}

	m := sheetIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", fmt.Errorf("invalid google sheet url")
	}
	sheetID = m[1]

	gidParam := ""
	if gm := gidPattern.FindStringSubmatch(rawURL); gm != nil {
		gidParam = "&gid=" + gm[1]
	}

	exportURL = fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv%s", sheetID, gidParam)
	return exportURL, sheetID, nil
}

// fetchSheetTitle 从公开编辑页的 HTML title 提取表名，尽力而为
func (s *Service) fetchSheetTitle(ctx context.Context, sheetID string) (string, error) {
	metaURL := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit", sheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.titleClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("title page returned status %d", resp.StatusCode)
	}

	// title 标签在文档头部，读 64KB 足够
	page, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", err
	}

	m := titlePattern.FindSubmatch(page)
	if m == nil {
		return "", nil
	}
	return strings.TrimSpace(string(m[1])), nil
}

// ExtractSheetTitle 从 HTML 页面提取表名
func ExtractSheetTitle(page string) string {
	m := titlePattern.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
