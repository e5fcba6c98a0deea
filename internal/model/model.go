package model

// 通用状态值
const (
	EstadoActivo   = "activo"
	EstadoInactivo = "inactivo"
)

// 采购/领用单状态值
const (
	EstadoCompletada = "completada"
	EstadoAnulada    = "anulada"
)

// 库存流水类型
const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
)
