// Package permit 实现会话级权限快照与UI门控判定。
// 快照在登录时构建一次，会话期间只读；未加载时所有判定失败关闭。
package permit

// 模块词汇表：每个受管实体一个模块
const (
	ModuleUsuarios        = "usuarios"
	ModuleCompras         = "compras"
	ModuleInsumos         = "insumos"
	ModuleProveedores     = "proveedores"
	ModuleServicios       = "servicios"
	ModuleAbastecimientos = "abastecimientos"
	ModuleCategorias      = "categoria_insumos"
	ModuleClientes        = "clientes"
)

// 动作词汇表
const (
	ActionCrear       = "crear"
	ActionEditar      = "editar"
	ActionEliminar    = "eliminar"
	ActionVerDetalles = "ver_detalles"
)

// RoleAdministrador 管理员角色：对所有模块/动作放行
const RoleAdministrador = "administrador"

// AllModules 全部模块
var AllModules = []string{
	ModuleUsuarios,
	ModuleCompras,
	ModuleInsumos,
	ModuleProveedores,
	ModuleServicios,
	ModuleAbastecimientos,
	ModuleCategorias,
	ModuleClientes,
}

// AllActions 全部动作
var AllActions = []string{ActionCrear, ActionEditar, ActionEliminar, ActionVerDetalles}

// Claim 一条可请求的能力：(模块, 动作)
type Claim struct {
	Module string `json:"module"`
	Action string `json:"action"`
}

// Snapshot 会话权限快照。不可变：角色变更时整体重建，而非原地修改。
type Snapshot struct {
	Role   string  `json:"role"`
	Admin  bool    `json:"admin"`
	Claims []Claim `json:"claims"`

	claimSet  map[Claim]struct{}
	moduleSet map[string]struct{}
}

// NewSnapshot 构建快照
func NewSnapshot(role string, admin bool, claims []Claim) *Snapshot {
	s := &Snapshot{
		Role:   role,
		Admin:  admin,
		Claims: claims,
	}
	s.index()
	return s
}

// index 重建内部索引(反序列化后也需调用)
func (s *Snapshot) index() {
	s.claimSet = make(map[Claim]struct{}, len(s.Claims))
	s.moduleSet = make(map[string]struct{}, len(s.Claims))
	for _, c := range s.Claims {
		s.claimSet[c] = struct{}{}
		s.moduleSet[c.Module] = struct{}{}
	}
}

// IsAdministrator 当前角色是否为管理员。nil快照返回false(失败关闭)。
func (s *Snapshot) IsAdministrator() bool {
	return s != nil && s.Admin
}

// CanAccessModule 是否持有该模块的任意claim，管理员恒真
func (s *Snapshot) CanAccessModule(module string) bool {
	if s == nil {
		return false
	}
	if s.Admin {
		return true
	}
	_, ok := s.moduleSet[module]
	return ok
}

// CanPerformAction 是否持有 (模块,动作) claim，管理员恒真
func (s *Snapshot) CanPerformAction(module, action string) bool {
	if s == nil {
		return false
	}
	if s.Admin {
		return true
	}
	_, ok := s.claimSet[Claim{Module: module, Action: action}]
	return ok
}

// Allows 综合判定：管理员 或 (模块可访问 且 动作被授权)
func (s *Snapshot) Allows(module, action string) bool {
	if s == nil {
		return false
	}
	return s.Admin || (s.CanAccessModule(module) && s.CanPerformAction(module, action))
}

// Modules 按模块聚合的动作列表，供前端渲染门控
func (s *Snapshot) Modules() map[string][]string {
	out := make(map[string][]string)
	if s == nil {
		return out
	}
	if s.Admin {
		for _, m := range AllModules {
			out[m] = append([]string(nil), AllActions...)
		}
		return out
	}
	for _, c := range s.Claims {
		out[c.Module] = append(out[c.Module], c.Action)
	}
	return out
}
