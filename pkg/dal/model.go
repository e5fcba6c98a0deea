package dal

import (
	"time"

	"gorm.io/gorm"
)

// Model 基础模型
type Model struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

// QueryOption 查询选项
type QueryOption func(*gorm.DB) *gorm.DB

// WithPreload 关联预加载
func WithPreload(query string, args ...any) QueryOption {
	return func(db *gorm.DB) *gorm.DB { return db.Preload(query, args...) }
}

// WithOrder 排序
func WithOrder(order string) QueryOption {
	return func(db *gorm.DB) *gorm.DB { return db.Order(order) }
}

// WithUnscoped 包含软删除记录
func WithUnscoped() QueryOption {
	return func(db *gorm.DB) *gorm.DB { return db.Unscoped() }
}
