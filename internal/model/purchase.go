package model

import (
	"time"

	"github.com/salonback/pkg/dal"
)

// Purchase 采购单
// Total 在服务端由明细小计汇总, 任何客户端提交的总额都被忽略
type Purchase struct {
	dal.Model
	ProveedorID     int64            `gorm:"index;not null" json:"proveedor_id"`
	Proveedor       *Provider        `gorm:"foreignKey:ProveedorID" json:"proveedor,omitempty"`
	Fecha           time.Time        `json:"fecha"`
	Total           float64          `gorm:"type:decimal(12,2);default:0" json:"total"`
	Estado          string           `gorm:"size:20;default:completada" json:"estado"`
	MotivoAnulacion string           `gorm:"size:255" json:"motivo_anulacion,omitempty"`
	Detalles        []PurchaseDetail `gorm:"foreignKey:CompraID" json:"detalles,omitempty"`
}

func (Purchase) TableName() string { return "compras" }

// Anulada 采购单是否已作废
func (p *Purchase) Anulada() bool { return p.Estado == EstadoAnulada }

// PurchaseDetail 采购明细行
type PurchaseDetail struct {
	dal.Model
	CompraID       int64   `gorm:"index;not null" json:"compra_id"`
	InsumoID       int64   `gorm:"index;not null" json:"insumo_id"`
	Insumo         *Supply `gorm:"foreignKey:InsumoID" json:"insumo,omitempty"`
	Cantidad       int     `gorm:"not null" json:"cantidad"`
	PrecioUnitario float64 `gorm:"type:decimal(10,2)" json:"precio_unitario"`
	Subtotal       float64 `gorm:"type:decimal(12,2)" json:"subtotal"`
}

func (PurchaseDetail) TableName() string { return "detalles_compra" }
