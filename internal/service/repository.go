package service

import (
	"context"

	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"gorm.io/gorm"
)

// Repository 服务项目仓储接口
type Repository interface {
	dal.Repository[model.Service]
	Nombres(ctx context.Context, excludeID int64) ([]string, error)
}

type repository struct {
	*dal.BaseRepository[model.Service]
}

// NewRepository 创建服务项目仓储
func NewRepository() Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Service]()}
}

// NewRepositoryWithDB 使用指定DB创建服务项目仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepositoryWithDB[model.Service](db)}
}

// Nombres 返回全部服务名称, 用于重名检查
func (r *repository) Nombres(ctx context.Context, excludeID int64) ([]string, error) {
	var nombres []string
	db := r.DB().WithContext(ctx).Model(&model.Service{})
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Pluck("nombre", &nombres).Error; err != nil {
		return nil, err
	}
	return nombres, nil
}
