package provider

import (
	"context"

	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"gorm.io/gorm"
)

// Repository 供应商仓储接口
type Repository interface {
	dal.Repository[model.Provider]
	Documentos(ctx context.Context, excludeID int64) ([]string, error)
	CountCompras(ctx context.Context, proveedorID int64) (int64, error)
}

type repository struct {
	*dal.BaseRepository[model.Provider]
}

// NewRepository 创建供应商仓储
func NewRepository() Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Provider]()}
}

// NewRepositoryWithDB 使用指定DB创建供应商仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepositoryWithDB[model.Provider](db)}
}

// Documentos 返回全部供应商文档号, 用于唯一性检查
func (r *repository) Documentos(ctx context.Context, excludeID int64) ([]string, error) {
	var docs []string
	db := r.DB().WithContext(ctx).Model(&model.Provider{})
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Pluck("documento", &docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountCompras 统计供应商的采购单数
func (r *repository) CountCompras(ctx context.Context, proveedorID int64) (int64, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.Purchase{}).
		Where("proveedor_id = ?", proveedorID).
		Count(&count).Error
	return count, err
}
