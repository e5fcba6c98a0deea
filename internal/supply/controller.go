package supply

import (
	"context"
	"fmt"
	"strconv"

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

// CategoryFinder 类目查找, 由categoría仓储实现
type CategoryFinder interface {
	FindByID(ctx context.Context, id int64, opts ...dal.QueryOption) (*model.Category, error)
}

// Controller 耗材控制器
type Controller struct {
	repo       Repository
	categories CategoryFinder
	flights    *inflight.Group
}

// NewController 创建耗材控制器
func NewController(repo Repository, categories CategoryFinder, flights *inflight.Group) *Controller {
	return &Controller{repo: repo, categories: categories, flights: flights}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/insumos" }

// Routes 路由表
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	perm := func(action string) fiber.Handler {
		return mw["perm:"+permit.ModuleInsumos+":"+action]
	}
	return []router.Route{
		{Method: fiber.MethodGet, Path: "", Handler: c.List, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/:id", Handler: c.Get, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodPost, Path: "", Handler: c.Create, Middlewares: []fiber.Handler{auth, perm(permit.ActionCrear)}},
		{Method: fiber.MethodPut, Path: "/:id", Handler: c.Update, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodPatch, Path: "/:id/cambiar_estado", Handler: c.CambiarEstado, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodDelete, Path: "/:id", Handler: c.Delete, Middlewares: []fiber.Handler{auth, perm(permit.ActionEliminar)}},
	}
}

// List 耗材列表, 预加载类目以便按类目名称搜索
func (c *Controller) List(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil, dal.WithPreload("Categoria"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar insumos"))
	}
	return common.Page(ctx, listConfig().Apply(items, common.ParseView(ctx)))
}

// Get 耗材详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	sup, err := c.repo.FindByID(ctx.UserContext(), id, dal.WithPreload("Categoria"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el insumo"))
	}
	if sup == nil {
		return response.AppError(ctx, errors.NotFound("insumo"))
	}
	return response.Success(ctx, sup)
}

// Create 创建耗材, 库存从0开始
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	if errs := c.validate(ctx.UserContext(), &req, 0); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	sup := &model.Supply{
		Nombre:         req.Nombre,
		CategoriaID:    req.CategoriaID,
		PrecioUnitario: req.PrecioUnitario,
		Cantidad:       0,
		Estado:         model.EstadoActivo,
	}
	if err := c.repo.Create(ctx.UserContext(), sup); err != nil {
		return response.AppError(ctx, errors.Internal("error al crear el insumo"))
	}

	// 回读类目引用, 列表展示需要类目名称
	created, err := c.repo.FindByID(ctx.UserContext(), sup.ID, dal.WithPreload("Categoria"))
	if err != nil || created == nil {
		return response.SuccessWithMessage(ctx, "insumo creado correctamente", sup)
	}
	return response.SuccessWithMessage(ctx, "insumo creado correctamente", created)
}

// Update 更新耗材. 不触碰 Cantidad
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	sup, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el insumo"))
	}
	if sup == nil {
		return response.AppError(ctx, errors.NotFound("insumo"))
	}

	if errs := c.validate(ctx.UserContext(), &req, id); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	sup.Nombre = req.Nombre
	sup.CategoriaID = req.CategoriaID
	sup.PrecioUnitario = req.PrecioUnitario
	if err := c.repo.Update(ctx.UserContext(), sup); err != nil {
		return response.AppError(ctx, errors.Internal("error al actualizar el insumo"))
	}

	updated, err := c.repo.FindByID(ctx.UserContext(), id, dal.WithPreload("Categoria"))
	if err != nil || updated == nil {
		return response.SuccessWithMessage(ctx, "insumo actualizado correctamente", sup)
	}
	return response.SuccessWithMessage(ctx, "insumo actualizado correctamente", updated)
}

// CambiarEstado 切换耗材状态
func (c *Controller) CambiarEstado(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	result, _, err := c.flights.Do(inflight.ToggleKey(permit.ModuleInsumos, id), func() (interface{}, error) {
		return c.toggle(ctx.UserContext(), id)
	})
	if err != nil {
		return response.AppError(ctx, err)
	}

	sup := result.(*model.Supply)
	return response.SuccessWithMessage(ctx, fmt.Sprintf("insumo %s correctamente",
		map[string]string{model.EstadoActivo: "activado", model.EstadoInactivo: "desactivado"}[sup.Estado]), sup)
}

func (c *Controller) toggle(ctx context.Context, id int64) (*model.Supply, error) {
	sup, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal("error al consultar el insumo")
	}
	if sup == nil {
		return nil, errors.NotFound("insumo")
	}

	if sup.Activo() {
		sup.Estado = model.EstadoInactivo
	} else {
		sup.Estado = model.EstadoActivo
	}

	if err := c.repo.Update(ctx, sup); err != nil {
		return nil, errors.Internal("error al actualizar el insumo")
	}
	return sup, nil
}

// Delete 删除耗材. 有库存流水的耗材不可删除; 已不存在视为成功
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	sup, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el insumo"))
	}
	if sup == nil {
		return response.SuccessWithMessage(ctx, "insumo eliminado correctamente", nil)
	}

	movs, err := c.repo.CountMovimientos(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al verificar movimientos de stock"))
	}
	if movs > 0 {
		return response.AppError(ctx, errors.Association("el insumo "+sup.Nombre, movs, "movimiento(s) de stock"))
	}

	if _, err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.AppError(ctx, errors.Internal("error al eliminar el insumo"))
	}
	return response.SuccessWithMessage(ctx, "insumo eliminado correctamente", nil)
}

// validate 规则表 + 类目存在性 + 重名检查
func (c *Controller) validate(ctx context.Context, req *SaveRequest, excludeID int64) formkit.Errors {
	errs := common.Validate(rules(), map[string]string{
		"nombre":          req.Nombre,
		"categoria_id":    nonZero(req.CategoriaID),
		"precio_unitario": strconv.FormatFloat(req.PrecioUnitario, 'f', -1, 64),
	})
	if errs != nil {
		return errs
	}

	cat, err := c.categories.FindByID(ctx, req.CategoriaID)
	if err != nil {
		return formkit.Errors{"categoria_id": "no se pudo verificar la categoría"}
	}
	if cat == nil {
		return formkit.Errors{"categoria_id": "la categoría seleccionada no existe"}
	}
	if !cat.Activa() {
		return formkit.Errors{"categoria_id": "la categoría seleccionada está inactiva"}
	}

	nombres, err := c.repo.Nombres(ctx, excludeID)
	if err != nil {
		return formkit.Errors{"nombre": "no se pudo verificar duplicados"}
	}
	if formkit.IsDuplicate(nombres, req.Nombre) {
		return formkit.Errors{"nombre": "ya existe un insumo con ese nombre"}
	}
	return nil
}

// nonZero ID字段的表单值表示, 0视为空
func nonZero(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
