package stockdraw

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/salonback/internal/common"
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"github.com/salonback/pkg/errors"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/inflight"
	"github.com/salonback/pkg/permit"
	"github.com/salonback/pkg/response"
	"github.com/salonback/pkg/router"
)

// UserFinder 用户查找, 由usuario仓储实现
type UserFinder interface {
	FindByID(ctx context.Context, id int64, opts ...dal.QueryOption) (*model.User, error)
}

// Controller 领用单控制器
type Controller struct {
	repo    Repository
	users   UserFinder
	flights *inflight.Group
}

// NewController 创建领用单控制器
func NewController(repo Repository, users UserFinder, flights *inflight.Group) *Controller {
	return &Controller{repo: repo, users: users, flights: flights}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/abastecimientos" }

// Routes 路由表
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	perm := func(action string) fiber.Handler {
		return mw["perm:"+permit.ModuleAbastecimientos+":"+action]
	}
	return []router.Route{
		{Method: fiber.MethodGet, Path: "", Handler: c.List, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/:id", Handler: c.Get, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodPost, Path: "", Handler: c.Create, Middlewares: []fiber.Handler{auth, perm(permit.ActionCrear)}},
		{Method: fiber.MethodPatch, Path: "/:id/anular", Handler: c.Anular, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodDelete, Path: "/:id", Handler: c.Delete, Middlewares: []fiber.Handler{auth, perm(permit.ActionEliminar)}},
	}
}

// List 领用单列表
func (c *Controller) List(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil,
		dal.WithPreload("Usuario"), dal.WithPreload("Detalles"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar abastecimientos"))
	}
	return common.Page(ctx, listConfig().Apply(items, common.ParseView(ctx)))
}

// Get 领用单详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	d, err := c.repo.FindByID(ctx.UserContext(), id,
		dal.WithPreload("Usuario"), dal.WithPreload("Detalles.Insumo"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el abastecimiento"))
	}
	if d == nil {
		return response.AppError(ctx, errors.NotFound("abastecimiento"))
	}
	return response.Success(ctx, d)
}

// Create 注册领用单: 同事务扣减库存并保证最小保留量
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	d, errs := c.build(ctx.UserContext(), &req)
	if errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	if err := c.repo.CreateWithStock(ctx.UserContext(), d); err != nil {
		return response.AppError(ctx, err)
	}

	created, err := c.repo.FindByID(ctx.UserContext(), d.ID,
		dal.WithPreload("Usuario"), dal.WithPreload("Detalles.Insumo"))
	if err != nil || created == nil {
		return response.SuccessWithMessage(ctx, "abastecimiento registrado correctamente", d)
	}
	return response.SuccessWithMessage(ctx, "abastecimiento registrado correctamente", created)
}

// Anular 作废领用单并恢复库存
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
	result, _, err := c.flights.Do(inflight.ToggleKey(permit.ModuleAbastecimientos, id), func() (interface{}, error) {
		return c.repo.Anular(ctx.UserContext(), id, motivo)
	})
	if err != nil {
		return response.AppError(ctx, err)
	}

	return response.SuccessWithMessage(ctx,
		"abastecimiento anulado correctamente. El stock de los insumos fue restaurado",
		result.(*model.StockDraw))
}

// Delete 删除领用单. 未作废的领用不可删除; 已不存在视为成功
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	d, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el abastecimiento"))
	}
	if d == nil {
		return response.SuccessWithMessage(ctx, "abastecimiento eliminado correctamente", nil)
	}

	if d.Estado != model.EstadoAnulada {
		return response.AppError(ctx, errors.New(409,
			"no se puede eliminar un abastecimiento completado: primero debe anularlo"))
	}

	if _, err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.AppError(ctx, errors.Internal("error al eliminar el abastecimiento"))
	}
	return response.SuccessWithMessage(ctx, "abastecimiento eliminado correctamente", nil)
}

// build 请求验证并组装聚合
func (c *Controller) build(ctx context.Context, req *CreateRequest) (*model.StockDraw, formkit.Errors) {
	if req.UsuarioID <= 0 {
		return nil, formkit.Errors{"usuario_id": "el campo usuario es obligatorio"}
	}
	user, err := c.users.FindByID(ctx, req.UsuarioID)
	if err != nil {
		return nil, formkit.Errors{"usuario_id": "no se pudo verificar el usuario"}
	}
	if user == nil {
		return nil, formkit.Errors{"usuario_id": "el usuario seleccionado no existe"}
	}
	if user.Estado != model.EstadoActivo {
		return nil, formkit.Errors{"usuario_id": "el usuario seleccionado está inactivo"}
	}

	if len(req.Detalles) == 0 {
		return nil, formkit.Errors{"detalles": "el abastecimiento debe tener al menos un insumo"}
	}

	fecha := time.Now()
	if req.Fecha != "" {
		parsed, err := time.Parse("2006-01-02", req.Fecha)
		if err != nil {
			return nil, formkit.Errors{"fecha": "la fecha tiene un formato inválido"}
		}
		fecha = parsed
	}

	d := &model.StockDraw{
		UsuarioID:     req.UsuarioID,
		Fecha:         fecha,
		Observaciones: strings.TrimSpace(req.Observaciones),
		Estado:        model.EstadoCompletada,
	}

	seen := make(map[int64]struct{}, len(req.Detalles))
	for i, det := range req.Detalles {
		field := fmt.Sprintf("detalles[%d]", i)
		if det.InsumoID <= 0 {
			return nil, formkit.Errors{field: "el insumo es obligatorio"}
		}
		if _, dup := seen[det.InsumoID]; dup {
			return nil, formkit.Errors{field: "el insumo está repetido en el abastecimiento"}
		}
		seen[det.InsumoID] = struct{}{}

		if det.Cantidad < 1 {
			return nil, formkit.Errors{field: "la cantidad debe ser mayor o igual a 1"}
		}

		d.Detalles = append(d.Detalles, model.StockDrawDetail{
			InsumoID: det.InsumoID,
			Cantidad: det.Cantidad,
		})
	}

	return d, nil
}
