package repository

import (
	"github.com/datalens-ai/datalens/internal/model"
	"gorm.io/gorm"
)

// datasetRepositoryImpl 数据集记录仓库实现
type datasetRepositoryImpl struct {
	db *gorm.DB
}

// NewDatasetRepository 创建数据集记录仓库
func NewDatasetRepository(db *gorm.DB) DatasetRepository {
	return &datasetRepositoryImpl{db: db}
}

// Create 创建数据集记录
func (r *datasetRepositoryImpl) Create(file *model.DatasetFile) error {
	return r.db.Create(file).Error
}

// GetByID 根据 ID 获取数据集记录
func (r *datasetRepositoryImpl) GetByID(id string) (*model.DatasetFile, error) {
	var file model.DatasetFile
	if err := r.db.Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByUser 列出用户全部数据集记录，(created_at, id) 升序
func (r *datasetRepositoryImpl) ListByUser(userID string) ([]*model.DatasetFile, error) {
	var files []*model.DatasetFile
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at asc, id asc").
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// Delete 删除数据集记录
func (r *datasetRepositoryImpl) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.DatasetFile{}).Error
}
