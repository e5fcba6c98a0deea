package service

import (
	"github.com/salonback/internal/common"
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
)

// SaveRequest 创建/更新服务项目请求
type SaveRequest struct {
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion"`
	Precio      float64 `json:"precio"`
	Duracion    int     `json:"duracion"`
}

// rules 服务项目表单规则表
func rules() []formkit.Rule {
	return []formkit.Rule{
		{Field: "nombre", Label: "nombre", Required: true, MinLen: 3, MaxLen: 100},
		{Field: "descripcion", Label: "descripción", MaxLen: 255},
		{Field: "precio", Label: "precio", Required: true, Min: formkit.Float(0.01)},
		{Field: "duracion", Label: "duración", Required: true, Min: formkit.Float(5), Max: formkit.Float(480)},
	}
}

// listConfig 服务项目列表配置
func listConfig() listkit.Config[model.Service] {
	return listkit.Config[model.Service]{
		Fields: []listkit.Field[model.Service]{
			{Key: "nombre", Kind: listkit.Text, Value: func(s model.Service) string { return s.Nombre }},
			{Key: "descripcion", Kind: listkit.Text, Value: func(s model.Service) string { return s.Descripcion }},
			{Key: "precio", Kind: listkit.Numeric, Value: func(s model.Service) string { return common.FormatFloat(s.Precio) }},
			{Key: "duracion", Kind: listkit.Numeric, Value: func(s model.Service) string { return common.FormatInt(s.Duracion) }},
			{Key: "estado", Kind: listkit.Text, Value: func(s model.Service) string { return s.Estado }},
		},
		Search: []string{"nombre", "descripcion", "precio", "estado"},
		Keywords: map[string]string{
			model.EstadoActivo:   "estado",
			model.EstadoInactivo: "estado",
		},
	}
}
