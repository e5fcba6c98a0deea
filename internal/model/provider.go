package model

import "github.com/salonback/pkg/dal"

// Provider 供应商
type Provider struct {
	dal.Model
	Nombre    string `gorm:"size:150;not null" json:"nombre"`
	Documento string `gorm:"size:30;uniqueIndex" json:"documento"`
	Email     string `gorm:"size:100" json:"email"`
	Telefono  string `gorm:"size:20" json:"telefono"`
	Direccion string `gorm:"size:255" json:"direccion"`
	Estado    string `gorm:"size:20;default:activo" json:"estado"`
}

func (Provider) TableName() string { return "proveedores" }
