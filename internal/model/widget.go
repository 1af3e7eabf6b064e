package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Widget 可视化组件，一次分析回答的最终渲染单元
// vis_type 为 kpi 或 chart；chart 的 payload 携带 type 字段（bar/line/pie/...）
type Widget struct {
	VisType string         `json:"vis_type"`
	Payload map[string]any `json:"payload"`
}

// JSON GORM JSON 字段
type JSON map[string]any

// Value 实现 driver.Valuer
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON: %T", value)
	}
	return json.Unmarshal(data, j)
}

// SavedWidget 用户保存到仪表盘的组件
type SavedWidget struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:64;not null" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	VisType   string    `gorm:"size:16;not null" json:"vis_type"` // kpi, chart
	Payload   JSON      `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (SavedWidget) TableName() string {
	return "saved_widgets"
}
