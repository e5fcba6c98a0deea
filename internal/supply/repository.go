package supply

import (
	"context"

	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"gorm.io/gorm"
)

// Repository 耗材仓储接口
type Repository interface {
	dal.Repository[model.Supply]
	Nombres(ctx context.Context, excludeID int64) ([]string, error)
	CountByCategoria(ctx context.Context, categoriaID int64) (total int64, activos int64, err error)
	CountMovimientos(ctx context.Context, insumoID int64) (int64, error)
}

type repository struct {
	*dal.BaseRepository[model.Supply]
}

// NewRepository 创建耗材仓储
func NewRepository() Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Supply]()}
}

// NewRepositoryWithDB 使用指定DB创建耗材仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepositoryWithDB[model.Supply](db)}
}

// Nombres 返回全部耗材名称, 用于重名检查
func (r *repository) Nombres(ctx context.Context, excludeID int64) ([]string, error) {
	var nombres []string
	db := r.DB().WithContext(ctx).Model(&model.Supply{})
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Pluck("nombre", &nombres).Error; err != nil {
		return nil, err
	}
	return nombres, nil
}

// CountByCategoria 统计类目下的耗材数与启用数
func (r *repository) CountByCategoria(ctx context.Context, categoriaID int64) (int64, int64, error) {
	var total, activos int64
	db := r.DB().WithContext(ctx).Model(&model.Supply{})

	if err := db.Where("categoria_id = ?", categoriaID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.DB().WithContext(ctx).Model(&model.Supply{}).
		Where("categoria_id = ? AND estado = ?", categoriaID, model.EstadoActivo).
		Count(&activos).Error; err != nil {
		return 0, 0, err
	}
	return total, activos, nil
}

// CountMovimientos 统计耗材的库存流水行数
func (r *repository) CountMovimientos(ctx context.Context, insumoID int64) (int64, error) {
	var count int64
	err := r.DB().WithContext(ctx).Model(&model.StockMovement{}).
		Where("insumo_id = ?", insumoID).
		Count(&count).Error
	return count, err
}
