package client

import (
	"context"

	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"gorm.io/gorm"
)

// Repository 客户仓储接口
type Repository interface {
	dal.Repository[model.Client]
	Column(ctx context.Context, column string, excludeID int64) ([]string, error)
}

type repository struct {
	*dal.BaseRepository[model.Client]
}

// NewRepository 创建客户仓储
func NewRepository() Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Client]()}
}

// NewRepositoryWithDB 使用指定DB创建客户仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepositoryWithDB[model.Client](db)}
}

// Column 返回指定列的全部非空值, 用于唯一性检查
func (r *repository) Column(ctx context.Context, column string, excludeID int64) ([]string, error) {
	var values []string
	db := r.DB().WithContext(ctx).Model(&model.Client{}).Where(column + " <> ''")
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Pluck(column, &values).Error; err != nil {
		return nil, err
	}
	return values, nil
}
