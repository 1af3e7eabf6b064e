package model

import "time"

// 数据集来源
const (
	SourceFile = "file"
	SourceURL  = "url"
)

// DatasetFile 已上传/已连接的数据集
// ID 即会话中 FileRecord 的 id：一次生成、随行持久化，
// 进程重启后恢复会话时仍然指向同一条记录
type DatasetFile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:64;not null" json:"user_id"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	FilePath  string    `gorm:"size:500;not null" json:"file_path"`
	Source    string    `gorm:"size:16;not null" json:"source"` // file, url
	SourceURL string    `gorm:"size:1000" json:"source_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (DatasetFile) TableName() string {
	return "dataset_files"
}
