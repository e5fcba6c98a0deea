package purchase

import (
	"github.com/salonback/internal/common"
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
)

// DetalleRequest 采购明细行请求
type DetalleRequest struct {
	InsumoID       int64   `json:"insumo_id"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
}

// CreateRequest 创建采购单请求
// 总额由服务端按明细汇总, 客户端提交的总额被忽略
type CreateRequest struct {
	ProveedorID int64            `json:"proveedor_id"`
	Fecha       string           `json:"fecha"`
	Detalles    []DetalleRequest `json:"detalles"`
}

// AnularRequest 作废采购单请求
type AnularRequest struct {
	MotivoAnulacion string `json:"motivo_anulacion"`
}

// MotivoMinLen 作废动机最小长度
const MotivoMinLen = 10

// anularRules 作废表单规则表
func anularRules() []formkit.Rule {
	return []formkit.Rule{
		{Field: "motivo_anulacion", Label: "motivo de anulación", Required: true, MinLen: MotivoMinLen, MaxLen: 255},
	}
}

// listConfig 采购单列表配置. 总额按数值排序, 日期按时间排序
func listConfig() listkit.Config[model.Purchase] {
	return listkit.Config[model.Purchase]{
		Fields: []listkit.Field[model.Purchase]{
			{Key: "id", Kind: listkit.Numeric, Value: func(p model.Purchase) string { return common.FormatID(p.ID) }},
			{Key: "proveedor", Kind: listkit.Text, Value: func(p model.Purchase) string {
				if p.Proveedor == nil {
					return ""
				}
				return p.Proveedor.Nombre
			}},
			{Key: "fecha", Kind: listkit.Date, Value: func(p model.Purchase) string { return p.Fecha.Format("2006-01-02") }},
			{Key: "total", Kind: listkit.Numeric, Value: func(p model.Purchase) string { return common.FormatFloat(p.Total) }},
			{Key: "estado", Kind: listkit.Text, Value: func(p model.Purchase) string { return p.Estado }},
		},
		Search: []string{"id", "proveedor", "total", "estado"},
		Keywords: map[string]string{
			model.EstadoCompletada: "estado",
			model.EstadoAnulada:    "estado",
		},
	}
}
