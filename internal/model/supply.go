package model

import "github.com/salonback/pkg/dal"

// Supply 耗材
// Cantidad 由采购与领用流水维护, 不接受客户端直接修改
type Supply struct {
	dal.Model
	Nombre         string    `gorm:"size:100;not null" json:"nombre"`
	CategoriaID    int64     `gorm:"index" json:"categoria_id"`
	Categoria      *Category `gorm:"foreignKey:CategoriaID" json:"categoria,omitempty"`
	PrecioUnitario float64   `gorm:"type:decimal(10,2);default:0" json:"precio_unitario"`
	Cantidad       int       `gorm:"default:0" json:"cantidad"`
	Estado         string    `gorm:"size:20;default:activo" json:"estado"`
}

func (Supply) TableName() string { return "insumos" }

// Activo 耗材是否处于启用状态
func (s *Supply) Activo() bool { return s.Estado == EstadoActivo }
