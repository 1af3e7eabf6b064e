package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts 时间解析候选格式，列标签和单元格共用
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01",
	"Jan 2006",
	"January 2006",
	"02-Jan-2006",
	"Jan-06",
}

// 裸年份判定为时间的合理区间，区间外的四位数按普通数值对待
const (
	minBareYear = 1900
	maxBareYear = 2100
)

// ParseTimestamp 尝试按候选格式解析时间
// 合理区间内的裸四位年份（宽格式表里最常见的列标签）也算时间
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) == 4 {
		if y, err := strconv.Atoi(s); err == nil {
			if y >= minBareYear && y <= maxBareYear {
				return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
			}
			return time.Time{}, false
		}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Sanitize 表格清洗，每次加载后必须执行：
//  1. 列标签去除首尾空白
//  2. 标签含 date/time 的列按时间解析，整列解析失败则保持原样
//  3. ±Inf / NaN 归一为 nil，与缺失值共用同一种空表示
func Sanitize(t *Table) {
	for i, col := range t.Columns {
		t.Columns[i] = strings.TrimSpace(col)
	}

	for i, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
			convertDateColumn(t, i)
		}
	}

	for _, row := range t.Rows {
		for i, cell := range row {
			if f, ok := cell.(float64); ok {
				if math.IsNaN(f) || math.IsInf(f, 0) {
					row[i] = nil
				}
			}
		}
	}
}

// convertDateColumn 将字符串列转为时间列
// 任意一个非空单元格解析失败则整列不动
func convertDateColumn(t *Table, col int) {
	parsed := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if col >= len(row) || row[col] == nil {
			parsed[i] = nil
			continue
		}
		s, ok := row[col].(string)
		if !ok {
			return
		}
		ts, ok := ParseTimestamp(s)
		if !ok {
			return
		}
		parsed[i] = ts
	}
	for i, row := range t.Rows {
		if col < len(row) {
			row[col] = parsed[i]
		}
	}
}

// CleanForJSON 递归剥离非法 JSON 值
// 浮点数的 ±Inf/NaN 不是合法 JSON token，统一替换为 null
func CleanForJSON(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return val
	case map[string]any:
		cleaned := make(map[string]any, len(val))
		for k, item := range val {
			cleaned[k] = CleanForJSON(item)
		}
		return cleaned
	case []any:
		cleaned := make([]any, len(val))
		for i, item := range val {
			cleaned[i] = CleanForJSON(item)
		}
		return cleaned
	default:
		return v
	}
}
