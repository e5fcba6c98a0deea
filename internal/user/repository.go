package user

import (
	"context"

	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"gorm.io/gorm"
)

// Repository 用户仓储接口
type Repository interface {
	dal.Repository[model.User]
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Column(ctx context.Context, column string, excludeID int64) ([]string, error)
	Roles(ctx context.Context) ([]model.Role, error)
	FindRole(ctx context.Context, id int64) (*model.Role, error)
}

type repository struct {
	*dal.BaseRepository[model.User]
}

// NewRepository 创建用户仓储
func NewRepository() Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.User]()}
}

// NewRepositoryWithDB 使用指定DB创建用户仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepositoryWithDB[model.User](db)}
}

// FindByUsername 按用户名查找, 预加载角色
func (r *repository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.FindOne(ctx, map[string]interface{}{"username": username}, dal.WithPreload("Rol"))
}

// Column 返回指定列的全部非空值, 用于唯一性检查
func (r *repository) Column(ctx context.Context, column string, excludeID int64) ([]string, error) {
	var values []string
	db := r.DB().WithContext(ctx).Model(&model.User{}).Where(column + " <> ''")
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Pluck(column, &values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

// Roles 全部角色
func (r *repository) Roles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.DB().WithContext(ctx).Find(&roles).Error
	return roles, err
}

// FindRole 按ID查找角色, 未找到返回 nil
func (r *repository) FindRole(ctx context.Context, id int64) (*model.Role, error) {
	var role model.Role
	if err := r.DB().WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}
