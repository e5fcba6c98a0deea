package stockdraw

import (
	"github.com/salonback/internal/common"
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/listkit"
)

// DetalleRequest 领用明细行请求
type DetalleRequest struct {
	InsumoID int64 `json:"insumo_id"`
	Cantidad int   `json:"cantidad"`
}

// CreateRequest 创建领用单请求
type CreateRequest struct {
	UsuarioID     int64            `json:"usuario_id"`
	Fecha         string           `json:"fecha"`
	Observaciones string           `json:"observaciones"`
	Detalles      []DetalleRequest `json:"detalles"`
}

// AnularRequest 作废领用单请求
type AnularRequest struct {
	MotivoAnulacion string `json:"motivo_anulacion"`
}

// MinRemaining 领用后每种耗材必须保留的最小库存
const MinRemaining = 5

// anularRules 作废表单规则表
func anularRules() []formkit.Rule {
	return []formkit.Rule{
		{Field: "motivo_anulacion", Label: "motivo de anulación", Required: true, MinLen: 10, MaxLen: 255},
	}
}

// listConfig 领用单列表配置
func listConfig() listkit.Config[model.StockDraw] {
	return listkit.Config[model.StockDraw]{
		Fields: []listkit.Field[model.StockDraw]{
			{Key: "id", Kind: listkit.Numeric, Value: func(d model.StockDraw) string { return common.FormatID(d.ID) }},
			{Key: "usuario", Kind: listkit.Text, Value: func(d model.StockDraw) string {
				if d.Usuario == nil {
					return ""
				}
				return d.Usuario.Nombre
			}},
			{Key: "fecha", Kind: listkit.Date, Value: func(d model.StockDraw) string { return d.Fecha.Format("2006-01-02") }},
			{Key: "observaciones", Kind: listkit.Text, Value: func(d model.StockDraw) string { return d.Observaciones }},
			{Key: "estado", Kind: listkit.Text, Value: func(d model.StockDraw) string { return d.Estado }},
		},
		Search: []string{"id", "usuario", "observaciones", "estado"},
		Keywords: map[string]string{
			model.EstadoCompletada: "estado",
			model.EstadoAnulada:    "estado",
		},
	}
}
