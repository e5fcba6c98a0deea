package category

import (
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
)

// SaveRequest 创建/更新类目请求
type SaveRequest struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

// CheckInsumosResponse 删除/停用前的依赖检查结果
type CheckInsumosResponse struct {
	PuedeEliminar   bool        `json:"puede_eliminar"`
	InsumosInfo     InsumosInfo `json:"insumos_info"`
	CategoriaNombre string      `json:"categoria_nombre"`
}

// InsumosInfo 关联耗材统计
type InsumosInfo struct {
	Total   int64 `json:"total"`
	Activos int64 `json:"activos"`
}

// rules 类目表单规则表
func rules() []formkit.Rule {
	return []formkit.Rule{
		{Field: "nombre", Label: "nombre", Required: true, MinLen: 3, MaxLen: 100},
		{Field: "descripcion", Label: "descripción", MaxLen: 255},
	}
}

// listConfig 类目列表配置
func listConfig() listkit.Config[model.Category] {
	return listkit.Config[model.Category]{
		Fields: []listkit.Field[model.Category]{
			{Key: "nombre", Kind: listkit.Text, Value: func(c model.Category) string { return c.Nombre }},
			{Key: "descripcion", Kind: listkit.Text, Value: func(c model.Category) string { return c.Descripcion }},
			{Key: "estado", Kind: listkit.Text, Value: func(c model.Category) string { return c.Estado }},
		},
		Search: []string{"nombre", "descripcion", "estado"},
		Keywords: map[string]string{
			model.EstadoActivo:   "estado",
			model.EstadoInactivo: "estado",
		},
	}
}
