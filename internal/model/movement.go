package model

import "github.com/salonback/pkg/dal"

// StockMovement 库存流水
// 每次采购, 领用或作废都会追加流水行, 不允许修改历史
type StockMovement struct {
	dal.Model
	InsumoID   int64   `gorm:"index;not null" json:"insumo_id"`
	Insumo     *Supply `gorm:"foreignKey:InsumoID" json:"insumo,omitempty"`
	Tipo       string  `gorm:"size:20;not null" json:"tipo"` // entrada | salida
	Cantidad   int     `gorm:"not null" json:"cantidad"`
	Referencia string  `gorm:"size:100" json:"referencia"` // compra:<id> | abastecimiento:<id>
	Motivo     string  `gorm:"size:255" json:"motivo"`
}

func (StockMovement) TableName() string { return "movimientos_stock" }
