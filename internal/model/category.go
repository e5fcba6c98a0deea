package model

import "github.com/salonback/pkg/dal"

// Category 耗材类目
type Category struct {
	dal.Model
	Nombre      string `gorm:"size:100;not null" json:"nombre"`
	Descripcion string `gorm:"size:255" json:"descripcion"`
	Estado      string `gorm:"size:20;default:activo" json:"estado"`
}

func (Category) TableName() string { return "categorias_insumos" }

// Activa 类目是否处于启用状态
func (c *Category) Activa() bool { return c.Estado == EstadoActivo }
