// Package table 提供表格数据的加载、清洗与领域识别
// CSV 和 Excel 文件统一加载为内存中的 Table 结构
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsupportedFormat 不支持的文件格式
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table 内存中的表格数据
// 单元格类型为 string / float64 / time.Time / nil，
// nil 是唯一的缺失值表示
type Table struct {
	Columns []string
	Rows    [][]any
}

// NumRows 行数
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Preview 前 n 行记录，用于上传/连接响应中的数据预览
func (t *Table) Preview(n int) []map[string]any {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	records := make([]map[string]any, 0, n)
	for _, row := range t.Rows[:n] {
		rec := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}
	return records
}

// PromptContext 生成供分析引擎理解表结构的文本：列名加样例行
func (t *Table) PromptContext(sampleRows int) string {
	var b strings.Builder
	b.WriteString("Columns: ")
	b.WriteString(strings.Join(t.Columns, ", "))
	b.WriteString(fmt.Sprintf("\nTotal rows: %d\n", len(t.Rows)))
	if sampleRows > len(t.Rows) {
		sampleRows = len(t.Rows)
	}
	if sampleRows > 0 {
		b.WriteString("Sample rows:\n")
		for _, row := range t.Rows[:sampleRows] {
			cells := make([]string, len(row))
			for i, c := range row {
				if c == nil {
					cells[i] = ""
				} else {
					cells[i] = fmt.Sprint(c)
				}
			}
			b.WriteString(strings.Join(cells, " | "))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Fingerprint 表内容的粗粒度指纹，用作答案缓存 key 的一部分
func (t *Table) Fingerprint() string {
	return fmt.Sprintf("%s:%d", strings.Join(t.Columns, ","), len(t.Rows))
}

// Load 从磁盘加载表格并清洗
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return Parse(f)
	case ".xlsx", ".xls":
		return loadExcel(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Parse 从 reader 解析 CSV 并清洗
// 字段数不匹配的行直接跳过，不视为错误
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &Table{Columns: header}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 坏行跳过
			continue
		}
		if len(rec) != len(header) {
			continue
		}
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = inferCell(cell)
		}
		t.Rows = append(t.Rows, row)
	}

	Sanitize(t)
	return t, nil
}

// inferCell 推断单元格类型：数值转 float64，缺失标记转 nil
func inferCell(s string) any {
	trimmed := strings.TrimSpace(s)
	if isMissing(trimmed) {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}

// isMissing 各类库特有的缺失值标记
func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}
