package category

import (
	"context"
	"fmt"

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

// SupplyCounter 关联耗材计数, 由insumo仓储实现
type SupplyCounter interface {
	CountByCategoria(ctx context.Context, categoriaID int64) (total int64, activos int64, err error)
}

// Controller 类目控制器
type Controller struct {
	repo     Repository
	supplies SupplyCounter
	flights  *inflight.Group
}

// NewController 创建类目控制器
func NewController(repo Repository, supplies SupplyCounter, flights *inflight.Group) *Controller {
	return &Controller{repo: repo, supplies: supplies, flights: flights}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/categorias_insumos" }

// Routes 路由表
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	perm := func(action string) fiber.Handler {
		return mw["perm:"+permit.ModuleCategorias+":"+action]
	}
	return []router.Route{
		{Method: fiber.MethodGet, Path: "", Handler: c.List, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/:id", Handler: c.Get, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodGet, Path: "/:id/check_insumos", Handler: c.CheckInsumos, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodPost, Path: "", Handler: c.Create, Middlewares: []fiber.Handler{auth, perm(permit.ActionCrear)}},
		{Method: fiber.MethodPut, Path: "/:id", Handler: c.Update, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodPatch, Path: "/:id/cambiar_estado", Handler: c.CambiarEstado, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodDelete, Path: "/:id", Handler: c.Delete, Middlewares: []fiber.Handler{auth, perm(permit.ActionEliminar)}},
	}
}

// List 类目列表
func (c *Controller) List(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar categorías"))
	}
	return common.Page(ctx, listConfig().Apply(items, common.ParseView(ctx)))
}

// Get 类目详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	cat, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar la categoría"))
	}
	if cat == nil {
		return response.AppError(ctx, errors.NotFound("categoría"))
	}
	return response.Success(ctx, cat)
}

// Create 创建类目
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	if errs := c.validate(ctx.UserContext(), &req, 0); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	cat := &model.Category{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Estado:      model.EstadoActivo,
	}
	if err := c.repo.Create(ctx.UserContext(), cat); err != nil {
		return response.AppError(ctx, errors.Internal("error al crear la categoría"))
	}
	return response.SuccessWithMessage(ctx, "categoría creada correctamente", cat)
}

// Update 更新类目
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	cat, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar la categoría"))
	}
	if cat == nil {
		return response.AppError(ctx, errors.NotFound("categoría"))
	}

	if errs := c.validate(ctx.UserContext(), &req, id); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	cat.Nombre = req.Nombre
	cat.Descripcion = req.Descripcion
	if err := c.repo.Update(ctx.UserContext(), cat); err != nil {
		return response.AppError(ctx, errors.Internal("error al actualizar la categoría"))
	}
	return response.SuccessWithMessage(ctx, "categoría actualizada correctamente", cat)
}

// CheckInsumos 删除/停用前检查关联耗材
func (c *Controller) CheckInsumos(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	cat, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar la categoría"))
	}
	if cat == nil {
		return response.AppError(ctx, errors.NotFound("categoría"))
	}

	total, activos, err := c.supplies.CountByCategoria(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al verificar insumos asociados"))
	}

	return response.Success(ctx, CheckInsumosResponse{
		PuedeEliminar:   total == 0,
		InsumosInfo:     InsumosInfo{Total: total, Activos: activos},
		CategoriaNombre: cat.Nombre,
	})
}

// CambiarEstado 切换类目状态. 停用前校验无启用中的关联耗材
func (c *Controller) CambiarEstado(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	result, _, err := c.flights.Do(inflight.ToggleKey(permit.ModuleCategorias, id), func() (interface{}, error) {
		return c.toggle(ctx.UserContext(), id)
	})
	if err != nil {
		return response.AppError(ctx, err)
	}

	cat := result.(*model.Category)
	return response.SuccessWithMessage(ctx, fmt.Sprintf("categoría %s correctamente",
		map[string]string{model.EstadoActivo: "activada", model.EstadoInactivo: "desactivada"}[cat.Estado]), cat)
}

// toggle 状态切换业务逻辑
func (c *Controller) toggle(ctx context.Context, id int64) (*model.Category, error) {
	cat, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal("error al consultar la categoría")
	}
	if cat == nil {
		return nil, errors.NotFound("categoría")
	}

	if cat.Activa() {
		_, activos, err := c.supplies.CountByCategoria(ctx, id)
		if err != nil {
			return nil, errors.Internal("error al verificar insumos asociados")
		}
		if activos > 0 {
			return nil, errors.Association("la categoría "+cat.Nombre, activos, "insumo(s) activo(s)")
		}
		cat.Estado = model.EstadoInactivo
	} else {
		cat.Estado = model.EstadoActivo
	}

	if err := c.repo.Update(ctx, cat); err != nil {
		return nil, errors.Internal("error al actualizar la categoría")
	}
	return cat, nil
}

// Delete 删除类目. 服务端已不存在的记录视为删除成功
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	cat, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar la categoría"))
	}
	if cat == nil {
		return response.SuccessWithMessage(ctx, "categoría eliminada correctamente", nil)
	}

	total, _, err := c.supplies.CountByCategoria(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al verificar insumos asociados"))
	}
	if total > 0 {
		return response.AppError(ctx, errors.Association("la categoría "+cat.Nombre, total, "insumo(s)"))
	}

	if _, err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.AppError(ctx, errors.Internal("error al eliminar la categoría"))
	}
	return response.SuccessWithMessage(ctx, "categoría eliminada correctamente", nil)
}

// validate 请求验证: 规则表 + 不区分大小写与变音符号的重名检查
func (c *Controller) validate(ctx context.Context, req *SaveRequest, excludeID int64) formkit.Errors {
	errs := common.Validate(rules(), map[string]string{
		"nombre":      req.Nombre,
		"descripcion": req.Descripcion,
	})
	if errs != nil {
		return errs
	}

	nombres, err := c.repo.Nombres(ctx, excludeID)
	if err != nil {
		return formkit.Errors{"nombre": "no se pudo verificar duplicados"}
	}
	if formkit.IsDuplicate(nombres, req.Nombre) {
		return formkit.Errors{"nombre": "ya existe una categoría con ese nombre"}
	}
	return nil
}
