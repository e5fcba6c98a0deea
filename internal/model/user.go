package model

import "github.com/salonback/pkg/dal"

// Role 角色
type Role struct {
	dal.Model
	Codigo      string `gorm:"size:50;uniqueIndex;not null" json:"codigo"`
	Nombre      string `gorm:"size:100;not null" json:"nombre"`
	Descripcion string `gorm:"size:255" json:"descripcion"`
}

func (Role) TableName() string { return "roles" }

// User 系统用户
type User struct {
	dal.Model
	Username string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password string `gorm:"size:100;not null" json:"-"`
	Nombre   string `gorm:"size:100" json:"nombre"`
	Email    string `gorm:"size:100;uniqueIndex" json:"email"`
	Telefono string `gorm:"size:20" json:"telefono"`
	RolID    int64  `gorm:"index" json:"rol_id"`
	Rol      *Role  `gorm:"foreignKey:RolID" json:"rol,omitempty"`
	Estado   string `gorm:"size:20;default:activo" json:"estado"`
}

func (User) TableName() string { return "usuarios" }

// RolCodigo 返回用户角色编码, 未加载角色时返回空串
func (u *User) RolCodigo() string {
	if u.Rol == nil {
		return ""
	}
	return u.Rol.Codigo
}
