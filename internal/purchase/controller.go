package purchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/salonback/internal/common"
	"github.com/salonback/internal/export"
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"github.com/salonback/pkg/errors"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/inflight"
	"github.com/salonback/pkg/permit"
	"github.com/salonback/pkg/response"
	"github.com/salonback/pkg/router"
)

// ProviderFinder 供应商查找, 由proveedor仓储实现
type ProviderFinder interface {
	FindByID(ctx context.Context, id int64, opts ...dal.QueryOption) (*model.Provider, error)
}

// SupplyFinder 耗材查找, 由insumo仓储实现
type SupplyFinder interface {
	FindByID(ctx context.Context, id int64, opts ...dal.QueryOption) (*model.Supply, error)
}

// Controller 采购单控制器
type Controller struct {
	repo      Repository
	providers ProviderFinder
	supplies  SupplyFinder
	flights   *inflight.Group
}

// NewController 创建采购单控制器
func NewController(repo Repository, providers ProviderFinder, supplies SupplyFinder, flights *inflight.Group) *Controller {
	return &Controller{repo: repo, providers: providers, supplies: supplies, flights: flights}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/compras" }

// Routes 路由表. 导出路由在 /:id 之前注册
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	perm := func(action string) fiber.Handler {
		return mw["perm:"+permit.ModuleCompras+":"+action]
	}
	return []router.Route{
		{Method: fiber.MethodGet, Path: "", Handler: c.List, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/export/xlsx", Handler: c.ExportXLSX, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodGet, Path: "/:id", Handler: c.Get, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodGet, Path: "/:id/pdf", Handler: c.PDF, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodPost, Path: "", Handler: c.Create, Middlewares: []fiber.Handler{auth, perm(permit.ActionCrear)}},
		{Method: fiber.MethodPatch, Path: "/:id/anular", Handler: c.Anular, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodDelete, Path: "/:id", Handler: c.Delete, Middlewares: []fiber.Handler{auth, perm(permit.ActionEliminar)}},
	}
}

// List 采购单列表
func (c *Controller) List(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil,
		dal.WithPreload("Proveedor"), dal.WithPreload("Detalles"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar compras"))
	}
	return common.Page(ctx, listConfig().Apply(items, common.ParseView(ctx)))
}

// Get 采购单详情, 含明细与耗材
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	p, err := c.repo.FindByID(ctx.UserContext(), id,
		dal.WithPreload("Proveedor"), dal.WithPreload("Detalles.Insumo"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar la compra"))
	}
	if p == nil {
		return response.AppError(ctx, errors.NotFound("compra"))
	}
	return response.Success(ctx, p)
}

// Create 注册采购单: 服务端计算小计与总额, 同事务增加库存
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	p, errs := c.build(ctx.UserContext(), &req)
	if errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	if err := c.repo.CreateWithStock(ctx.UserContext(), p); err != nil {
		return response.AppError(ctx, errors.Internal("error al registrar la compra"))
	}

	created, err := c.repo.FindByID(ctx.UserContext(), p.ID,
		dal.WithPreload("Proveedor"), dal.WithPreload("Detalles.Insumo"))
	if err != nil || created == nil {
		return response.SuccessWithMessage(ctx, "compra registrada correctamente", p)
	}
	return response.SuccessWithMessage(ctx, "compra registrada correctamente", created)
}

// Anular 作废采购单并回退库存
func (c *Controller) Anular(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	var req AnularRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	if errs := common.Validate(anularRules(), map[string]string{
		"motivo_anulacion": req.MotivoAnulacion,
	}); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	motivo := strings.TrimSpace(req.MotivoAnulacion)
	result, _, err := c.flights.Do(inflight.ToggleKey(permit.ModuleCompras, id), func() (interface{}, error) {
		return c.repo.Anular(ctx.UserContext(), id, motivo)
	})
	if err != nil {
		return response.AppError(ctx, err)
	}

	return response.SuccessWithMessage(ctx,
		"compra anulada correctamente. El stock de los insumos fue revertido",
		result.(*model.Purchase))
}

// PDF 下载采购凭证
func (c *Controller) PDF(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	p, err := c.repo.FindByID(ctx.UserContext(), id,
		dal.WithPreload("Proveedor"), dal.WithPreload("Detalles.Insumo"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar la compra"))
	}
	if p == nil {
		return response.AppError(ctx, errors.NotFound("compra"))
	}

	voucher := buildVoucher(p)
	data, err := export.PurchasePDF(voucher)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al generar el comprobante"))
	}

	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", voucher.Filename()))
	return ctx.Send(data)
}

// ExportXLSX 下载采购报表
func (c *Controller) ExportXLSX(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil,
		dal.WithPreload("Proveedor"), dal.WithPreload("Detalles"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar compras"))
	}

	rows := make([]export.ReportRow, 0, len(items))
	for _, p := range items {
		proveedor := ""
		if p.Proveedor != nil {
			proveedor = p.Proveedor.Nombre
		}
		rows = append(rows, export.ReportRow{
			ID:        p.ID,
			Fecha:     p.Fecha,
			Proveedor: proveedor,
			Items:     len(p.Detalles),
			Total:     p.Total,
			Estado:    p.Estado,
		})
	}

	data, err := export.PurchasesXLSX(rows)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al generar el reporte"))
	}

	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.ReportFilename(time.Now())))
	return ctx.Send(data)
}

// Delete 删除采购单. 已完成的采购不可删除, 先作废; 已不存在视为成功
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	p, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar la compra"))
	}
	if p == nil {
		return response.SuccessWithMessage(ctx, "compra eliminada correctamente", nil)
	}

	if !p.Anulada() {
		return response.AppError(ctx, errors.New(409,
			"no se puede eliminar una compra completada: primero debe anularla"))
	}

	if _, err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.AppError(ctx, errors.Internal("error al eliminar la compra"))
	}
	return response.SuccessWithMessage(ctx, "compra eliminada correctamente", nil)
}

// build 请求验证并组装聚合: 供应商与耗材必须存在且启用,
// 明细至少一行, 数量与单价为正
func (c *Controller) build(ctx context.Context, req *CreateRequest) (*model.Purchase, formkit.Errors) {
	if req.ProveedorID <= 0 {
		return nil, formkit.Errors{"proveedor_id": "el campo proveedor es obligatorio"}
	}
	prov, err := c.providers.FindByID(ctx, req.ProveedorID)
	if err != nil {
		return nil, formkit.Errors{"proveedor_id": "no se pudo verificar el proveedor"}
	}
	if prov == nil {
		return nil, formkit.Errors{"proveedor_id": "el proveedor seleccionado no existe"}
	}
	if prov.Estado != model.EstadoActivo {
		return nil, formkit.Errors{"proveedor_id": "el proveedor seleccionado está inactivo"}
	}

	if len(req.Detalles) == 0 {
		return nil, formkit.Errors{"detalles": "la compra debe tener al menos un insumo"}
	}

	fecha := time.Now()
	if req.Fecha != "" {
		parsed, err := parseFecha(req.Fecha)
		if err != nil {
			return nil, formkit.Errors{"fecha": "la fecha tiene un formato inválido"}
		}
		fecha = parsed
	}

	p := &model.Purchase{
		ProveedorID: req.ProveedorID,
		Fecha:       fecha,
		Estado:      model.EstadoCompletada,
	}

	seen := make(map[int64]struct{}, len(req.Detalles))
	for i, det := range req.Detalles {
		field := fmt.Sprintf("detalles[%d]", i)
		if det.InsumoID <= 0 {
			return nil, formkit.Errors{field: "el insumo es obligatorio"}
		}
		if _, dup := seen[det.InsumoID]; dup {
			return nil, formkit.Errors{field: "el insumo está repetido en la compra"}
		}
		seen[det.InsumoID] = struct{}{}

		if det.Cantidad < 1 {
			return nil, formkit.Errors{field: "la cantidad debe ser mayor o igual a 1"}
		}
		if det.PrecioUnitario <= 0 {
			return nil, formkit.Errors{field: "el precio unitario debe ser mayor a 0"}
		}

		sup, err := c.supplies.FindByID(ctx, det.InsumoID)
		if err != nil {
			return nil, formkit.Errors{field: "no se pudo verificar el insumo"}
		}
		if sup == nil {
			return nil, formkit.Errors{field: "el insumo seleccionado no existe"}
		}
		if !sup.Activo() {
			return nil, formkit.Errors{field: fmt.Sprintf("el insumo %s está inactivo", sup.Nombre)}
		}

		subtotal := float64(det.Cantidad) * det.PrecioUnitario
		p.Detalles = append(p.Detalles, model.PurchaseDetail{
			InsumoID:       det.InsumoID,
			Cantidad:       det.Cantidad,
			PrecioUnitario: det.PrecioUnitario,
			Subtotal:       subtotal,
		})
		p.Total += subtotal
	}

	return p, nil
}

// buildVoucher 采购单到凭证数据的映射
func buildVoucher(p *model.Purchase) *export.Voucher {
	proveedor := ""
	if p.Proveedor != nil {
		proveedor = p.Proveedor.Nombre
	}

	items := make([]export.VoucherItem, 0, len(p.Detalles))
	for _, det := range p.Detalles {
		nombre := fmt.Sprintf("insumo %d", det.InsumoID)
		if det.Insumo != nil {
			nombre = det.Insumo.Nombre
		}
		items = append(items, export.VoucherItem{
			Insumo:         nombre,
			Cantidad:       det.Cantidad,
			PrecioUnitario: det.PrecioUnitario,
			Subtotal:       det.Subtotal,
		})
	}

	return &export.Voucher{
		ID:        p.ID,
		Fecha:     p.Fecha,
		Proveedor: proveedor,
		Estado:    p.Estado,
		Motivo:    p.MotivoAnulacion,
		Items:     items,
		Total:     p.Total,
	}
}

var fechaLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

func parseFecha(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range fechaLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

