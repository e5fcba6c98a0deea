package auth

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v3"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/salonback/pkg/config"
	"gorm.io/gorm"
)

var (
	enforcerOnce sync.Once
	enforcer     *casbin.Enforcer
)

// InitCasbin 初始化Casbin，策略存储在GORM适配的数据库表中
func InitCasbin(db *gorm.DB, cfg *config.CasbinConfig) error {
	var err error
	enforcerOnce.Do(func() {
		adapter, adapterErr := gormadapter.NewAdapterByDB(db)
		if adapterErr != nil {
			err = fmt.Errorf("failed to create casbin adapter: %w", adapterErr)
			return
		}

		enforcer, err = casbin.NewEnforcer(cfg.ModelPath, adapter)
		if err != nil {
			err = fmt.Errorf("failed to create casbin enforcer: %w", err)
			return
		}

		if err = enforcer.LoadPolicy(); err != nil {
			err = fmt.Errorf("failed to load casbin policy: %w", err)
			return
		}
	})
	return err
}

// GetEnforcer 获取Enforcer
func GetEnforcer() *casbin.Enforcer {
	if enforcer == nil {
		panic("casbin enforcer not initialized, call InitCasbin first")
	}
	return enforcer
}

// SetEnforcerForTest 注入测试Enforcer
func SetEnforcerForTest(e *casbin.Enforcer) {
	enforcer = e
}

// CasbinService 策略管理封装：主体为 role:<code>，对象为模块，动作为claim动作
type CasbinService struct {
	enforcer *casbin.Enforcer
}

// NewCasbinService 创建Casbin服务
func NewCasbinService() *CasbinService {
	return &CasbinService{
		enforcer: GetEnforcer(),
	}
}

// NewCasbinServiceWith 使用指定Enforcer创建
func NewCasbinServiceWith(e *casbin.Enforcer) *CasbinService {
	return &CasbinService{enforcer: e}
}

// roleSubject 角色主体命名
func roleSubject(roleCode string) string {
	return "role:" + roleCode
}

// HasClaim 检查角色是否持有 (模块,动作) claim
func (s *CasbinService) HasClaim(roleCode, module, action string) bool {
	ok, _ := s.enforcer.Enforce(roleSubject(roleCode), module, action)
	return ok
}

// GetClaimsForRole 获取角色的全部策略行
func (s *CasbinService) GetClaimsForRole(roleCode string) [][]string {
	policies, _ := s.enforcer.GetFilteredPolicy(0, roleSubject(roleCode))
	return policies
}

// SyncRoleClaims 整体替换角色的claims并持久化
func (s *CasbinService) SyncRoleClaims(roleCode string, claims [][2]string) error {
	if _, err := s.enforcer.DeletePermissionsForUser(roleSubject(roleCode)); err != nil {
		return err
	}
	for _, c := range claims {
		if _, err := s.enforcer.AddPolicy(roleSubject(roleCode), c[0], c[1]); err != nil {
			return err
		}
	}
	return s.enforcer.SavePolicy()
}

// DeleteRole 删除角色及其全部策略
func (s *CasbinService) DeleteRole(roleCode string) error {
	if _, err := s.enforcer.DeleteRole(roleSubject(roleCode)); err != nil {
		return err
	}
	return s.enforcer.SavePolicy()
}
