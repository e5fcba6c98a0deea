package provider

import (
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
)

// SaveRequest 创建/更新供应商请求
type SaveRequest struct {
	Nombre    string `json:"nombre"`
	Documento string `json:"documento"`
	Email     string `json:"email"`
	Telefono  string `json:"telefono"`
	Direccion string `json:"direccion"`
}

// VerificarEliminacionResponse 删除前的依赖检查结果
type VerificarEliminacionResponse struct {
	PuedeEliminar bool   `json:"puede_eliminar"`
	Compras       int64  `json:"compras"`
	Proveedor     string `json:"proveedor"`
}

// rules 供应商表单规则表
func rules() []formkit.Rule {
	return []formkit.Rule{
		{Field: "nombre", Label: "nombre", Required: true, MinLen: 3, MaxLen: 150},
		{Field: "documento", Label: "documento", Required: true, Pattern: formkit.PatternDocument,
			PatternMsg: "el documento debe tener entre 6 y 12 dígitos"},
		{Field: "email", Label: "email", Pattern: formkit.PatternEmail,
			PatternMsg: "el email tiene un formato inválido"},
		{Field: "telefono", Label: "teléfono", Pattern: formkit.PatternPhone,
			PatternMsg: "el teléfono debe tener entre 7 y 10 dígitos"},
		{Field: "direccion", Label: "dirección", MaxLen: 255},
	}
}

// listConfig 供应商列表配置
func listConfig() listkit.Config[model.Provider] {
	return listkit.Config[model.Provider]{
		Fields: []listkit.Field[model.Provider]{
			{Key: "nombre", Kind: listkit.Text, Value: func(p model.Provider) string { return p.Nombre }},
			{Key: "documento", Kind: listkit.Text, Value: func(p model.Provider) string { return p.Documento }},
			{Key: "email", Kind: listkit.Text, Value: func(p model.Provider) string { return p.Email }},
			{Key: "telefono", Kind: listkit.Text, Value: func(p model.Provider) string { return p.Telefono }},
			{Key: "estado", Kind: listkit.Text, Value: func(p model.Provider) string { return p.Estado }},
		},
		Search: []string{"nombre", "documento", "email", "telefono", "estado"},
		Keywords: map[string]string{
			model.EstadoActivo:   "estado",
			model.EstadoInactivo: "estado",
		},
	}
}
