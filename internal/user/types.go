package user

import (
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
)

// CreateRequest 创建用户请求
type CreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
	RolID    int64  `json:"rol_id"`
}

// UpdateRequest 更新用户请求. Password 为空时不变更
type UpdateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Telefono string `json:"telefono"`
	RolID    int64  `json:"rol_id"`
}

// VerificarCitasResponse 停用前的预约检查结果
type VerificarCitasResponse struct {
	PuedeDesactivar bool   `json:"puede_desactivar"`
	CitasPendientes int    `json:"citas_pendientes"`
	Usuario         string `json:"usuario"`
}

// SetClaimsRequest 角色权限配置请求
type SetClaimsRequest struct {
	Claims []ClaimRequest `json:"claims"`
}

// ClaimRequest 一条 (模块, 动作) 能力
type ClaimRequest struct {
	Module string `json:"module"`
	Action string `json:"action"`
}

// rules 用户表单规则表. requirePassword 在创建时为真
func rules(requirePassword bool) []formkit.Rule {
	return []formkit.Rule{
		{Field: "username", Label: "username", Required: true, MinLen: 4, MaxLen: 50},
		{Field: "password", Label: "contraseña", Required: requirePassword, MinLen: 8, MaxLen: 72},
		{Field: "nombre", Label: "nombre", Required: true, MinLen: 2, MaxLen: 100},
		{Field: "email", Label: "email", Required: true, Pattern: formkit.PatternEmail,
			PatternMsg: "el email tiene un formato inválido"},
		{Field: "telefono", Label: "teléfono", Pattern: formkit.PatternPhone,
			PatternMsg: "el teléfono debe tener entre 7 y 10 dígitos"},
		{Field: "rol_id", Label: "rol", Required: true},
	}
}

// listConfig 用户列表配置. 角色名称参与搜索
func listConfig() listkit.Config[model.User] {
	return listkit.Config[model.User]{
		Fields: []listkit.Field[model.User]{
			{Key: "username", Kind: listkit.Text, Value: func(u model.User) string { return u.Username }},
			{Key: "nombre", Kind: listkit.Text, Value: func(u model.User) string { return u.Nombre }},
			{Key: "email", Kind: listkit.Text, Value: func(u model.User) string { return u.Email }},
			{Key: "rol", Kind: listkit.Text, Value: func(u model.User) string {
				if u.Rol == nil {
					return ""
				}
				return u.Rol.Nombre
			}},
			{Key: "estado", Kind: listkit.Text, Value: func(u model.User) string { return u.Estado }},
		},
		Search: []string{"username", "nombre", "email", "rol", "estado"},
		Keywords: map[string]string{
			model.EstadoActivo:   "estado",
			model.EstadoInactivo: "estado",
		},
	}
}
