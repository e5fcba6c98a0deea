package model

import (
	"time"

	"github.com/salonback/pkg/dal"
)

// StockDraw 领用单: 员工从库存领取耗材
type StockDraw struct {
	dal.Model
	UsuarioID       int64             `gorm:"index;not null" json:"usuario_id"`
	Usuario         *User             `gorm:"foreignKey:UsuarioID" json:"usuario,omitempty"`
	Fecha           time.Time         `json:"fecha"`
	Observaciones   string            `gorm:"size:255" json:"observaciones"`
	Estado          string            `gorm:"size:20;default:completada" json:"estado"`
	MotivoAnulacion string            `gorm:"size:255" json:"motivo_anulacion,omitempty"`
	Detalles        []StockDrawDetail `gorm:"foreignKey:AbastecimientoID" json:"detalles,omitempty"`
}

func (StockDraw) TableName() string { return "abastecimientos" }

// StockDrawDetail 领用明细行
type StockDrawDetail struct {
	dal.Model
	AbastecimientoID int64   `gorm:"index;not null" json:"abastecimiento_id"`
	InsumoID         int64   `gorm:"index;not null" json:"insumo_id"`
	Insumo           *Supply `gorm:"foreignKey:InsumoID" json:"insumo,omitempty"`
	Cantidad         int     `gorm:"not null" json:"cantidad"`
}

func (StockDrawDetail) TableName() string { return "detalles_abastecimiento" }
