package supply

import (
	"github.com/salonback/internal/common"
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
)

// SaveRequest 创建/更新耗材请求
// Cantidad 不出现在请求中: 库存只随采购与领用流水变化
type SaveRequest struct {
	Nombre         string  `json:"nombre"`
	CategoriaID    int64   `json:"categoria_id"`
	PrecioUnitario float64 `json:"precio_unitario"`
}

// rules 耗材表单规则表
func rules() []formkit.Rule {
	return []formkit.Rule{
		{Field: "nombre", Label: "nombre", Required: true, MinLen: 3, MaxLen: 100},
		{Field: "categoria_id", Label: "categoría", Required: true},
		{Field: "precio_unitario", Label: "precio unitario", Required: true, Min: formkit.Float(0.01)},
	}
}

// listConfig 耗材列表配置. 类目名称参与搜索, 数量与价格按数值排序
func listConfig() listkit.Config[model.Supply] {
	return listkit.Config[model.Supply]{
		Fields: []listkit.Field[model.Supply]{
			{Key: "nombre", Kind: listkit.Text, Value: func(s model.Supply) string { return s.Nombre }},
			{Key: "categoria", Kind: listkit.Text, Value: func(s model.Supply) string {
				if s.Categoria == nil {
					return ""
				}
				return s.Categoria.Nombre
			}},
			{Key: "precio_unitario", Kind: listkit.Numeric, Value: func(s model.Supply) string { return common.FormatFloat(s.PrecioUnitario) }},
			{Key: "cantidad", Kind: listkit.Numeric, Value: func(s model.Supply) string { return common.FormatInt(s.Cantidad) }},
			{Key: "estado", Kind: listkit.Text, Value: func(s model.Supply) string { return s.Estado }},
		},
		Search: []string{"nombre", "categoria", "precio_unitario", "cantidad", "estado"},
		Keywords: map[string]string{
			model.EstadoActivo:   "estado",
			model.EstadoInactivo: "estado",
		},
	}
}
