package category

import (
	"context"

	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"gorm.io/gorm"
)

// Repository 类目仓储接口
type Repository interface {
	dal.Repository[model.Category]
	Nombres(ctx context.Context, excludeID int64) ([]string, error)
}

type repository struct {
	*dal.BaseRepository[model.Category]
}

// NewRepository 创建类目仓储
func NewRepository() Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Category]()}
}

// NewRepositoryWithDB 使用指定DB创建类目仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepositoryWithDB[model.Category](db)}
}

// Nombres 返回全部类目名称, 用于重名检查. excludeID>0 时排除该记录
func (r *repository) Nombres(ctx context.Context, excludeID int64) ([]string, error) {
	var nombres []string
	db := r.DB().WithContext(ctx).Model(&model.Category{})
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Pluck("nombre", &nombres).Error; err != nil {
		return nil, err
	}
	return nombres, nil
}
