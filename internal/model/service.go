package model

import "github.com/salonback/pkg/dal"

// Service 美甲服务项目
type Service struct {
	dal.Model
	Nombre      string  `gorm:"size:100;not null" json:"nombre"`
	Descripcion string  `gorm:"size:255" json:"descripcion"`
	Precio      float64 `gorm:"type:decimal(10,2);not null" json:"precio"`
	Duracion    int     `gorm:"default:30" json:"duracion"` // 分钟
	Estado      string  `gorm:"size:20;default:activo" json:"estado"`
}

func (Service) TableName() string { return "servicios" }
