package model

import "github.com/salonback/pkg/dal"

// Client 客户档案
type Client struct {
	dal.Model
	Nombre    string `gorm:"size:100;not null" json:"nombre"`
	Apellido  string `gorm:"size:100" json:"apellido"`
	Documento string `gorm:"size:30;uniqueIndex" json:"documento"`
	Email     string `gorm:"size:100" json:"email"`
	Telefono  string `gorm:"size:20" json:"telefono"`
	Estado    string `gorm:"size:20;default:activo" json:"estado"`
}

func (Client) TableName() string { return "clientes" }
