package client

import (
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
)

// SaveRequest 创建/更新客户请求
type SaveRequest struct {
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Documento string `json:"documento"`
	Email     string `json:"email"`
	Telefono  string `json:"telefono"`
}

// rules 客户表单规则表
func rules() []formkit.Rule {
	return []formkit.Rule{
		{Field: "nombre", Label: "nombre", Required: true, MinLen: 2, MaxLen: 100},
		{Field: "apellido", Label: "apellido", MaxLen: 100},
		{Field: "documento", Label: "documento", Required: true, Pattern: formkit.PatternDocument,
			PatternMsg: "el documento debe tener entre 6 y 12 dígitos"},
		{Field: "email", Label: "email", Pattern: formkit.PatternEmail,
			PatternMsg: "el email tiene un formato inválido"},
		{Field: "telefono", Label: "teléfono", Pattern: formkit.PatternPhone,
			PatternMsg: "el teléfono debe tener entre 7 y 10 dígitos"},
	}
}

// listConfig 客户列表配置
func listConfig() listkit.Config[model.Client] {
	return listkit.Config[model.Client]{
		Fields: []listkit.Field[model.Client]{
			{Key: "nombre", Kind: listkit.Text, Value: func(c model.Client) string { return c.Nombre + " " + c.Apellido }},
			{Key: "documento", Kind: listkit.Text, Value: func(c model.Client) string { return c.Documento }},
			{Key: "email", Kind: listkit.Text, Value: func(c model.Client) string { return c.Email }},
			{Key: "telefono", Kind: listkit.Text, Value: func(c model.Client) string { return c.Telefono }},
			{Key: "estado", Kind: listkit.Text, Value: func(c model.Client) string { return c.Estado }},
		},
		Search: []string{"nombre", "documento", "email", "telefono", "estado"},
		Keywords: map[string]string{
			model.EstadoActivo:   "estado",
			model.EstadoInactivo: "estado",
		},
	}
}
