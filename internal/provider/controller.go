package provider

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

// Controller 供应商控制器
type Controller struct {
	repo    Repository
	flights *inflight.Group
}

// NewController 创建供应商控制器
func NewController(repo Repository, flights *inflight.Group) *Controller {
	return &Controller{repo: repo, flights: flights}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/proveedores" }

// Routes 路由表
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	perm := func(action string) fiber.Handler {
		return mw["perm:"+permit.ModuleProveedores+":"+action]
	}
	return []router.Route{
		{Method: fiber.MethodGet, Path: "", Handler: c.List, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/:id", Handler: c.Get, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodGet, Path: "/:id/verificar_eliminacion", Handler: c.VerificarEliminacion, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodPost, Path: "", Handler: c.Create, Middlewares: []fiber.Handler{auth, perm(permit.ActionCrear)}},
		{Method: fiber.MethodPut, Path: "/:id", Handler: c.Update, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodPatch, Path: "/:id/cambiar_estado", Handler: c.CambiarEstado, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodDelete, Path: "/:id", Handler: c.Delete, Middlewares: []fiber.Handler{auth, perm(permit.ActionEliminar)}},
	}
}

// List 供应商列表
func (c *Controller) List(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar proveedores"))
	}
	return common.Page(ctx, listConfig().Apply(items, common.ParseView(ctx)))
}

// Get 供应商详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	prov, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el proveedor"))
	}
	if prov == nil {
		return response.AppError(ctx, errors.NotFound("proveedor"))
	}
	return response.Success(ctx, prov)
}

// VerificarEliminacion 删除前检查关联采购单
func (c *Controller) VerificarEliminacion(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	prov, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el proveedor"))
	}
	if prov == nil {
		return response.AppError(ctx, errors.NotFound("proveedor"))
	}

	compras, err := c.repo.CountCompras(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al verificar compras asociadas"))
	}

	return response.Success(ctx, VerificarEliminacionResponse{
		PuedeEliminar: compras == 0,
		Compras:       compras,
		Proveedor:     prov.Nombre,
	})
}

// Create 创建供应商
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	if errs := c.validate(ctx.UserContext(), &req, 0); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	prov := &model.Provider{
		Nombre:    req.Nombre,
		Documento: req.Documento,
		Email:     req.Email,
		Telefono:  req.Telefono,
		Direccion: req.Direccion,
		Estado:    model.EstadoActivo,
	}
	if err := c.repo.Create(ctx.UserContext(), prov); err != nil {
		return response.AppError(ctx, errors.Internal("error al crear el proveedor"))
	}
	return response.SuccessWithMessage(ctx, "proveedor creado correctamente", prov)
}

// Update 更新供应商
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	prov, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el proveedor"))
	}
	if prov == nil {
		return response.AppError(ctx, errors.NotFound("proveedor"))
	}

	if errs := c.validate(ctx.UserContext(), &req, id); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	prov.Nombre = req.Nombre
	prov.Documento = req.Documento
	prov.Email = req.Email
	prov.Telefono = req.Telefono
	prov.Direccion = req.Direccion
	if err := c.repo.Update(ctx.UserContext(), prov); err != nil {
		return response.AppError(ctx, errors.Internal("error al actualizar el proveedor"))
	}
	return response.SuccessWithMessage(ctx, "proveedor actualizado correctamente", prov)
}

// CambiarEstado 切换供应商状态
func (c *Controller) CambiarEstado(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	result, _, err := c.flights.Do(inflight.ToggleKey(permit.ModuleProveedores, id), func() (interface{}, error) {
		return c.toggle(ctx.UserContext(), id)
	})
	if err != nil {
		return response.AppError(ctx, err)
	}

	prov := result.(*model.Provider)
	return response.SuccessWithMessage(ctx, fmt.Sprintf("proveedor %s correctamente",
		map[string]string{model.EstadoActivo: "activado", model.EstadoInactivo: "desactivado"}[prov.Estado]), prov)
}

func (c *Controller) toggle(ctx context.Context, id int64) (*model.Provider, error) {
	prov, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal("error al consultar el proveedor")
	}
	if prov == nil {
		return nil, errors.NotFound("proveedor")
	}

	if prov.Estado == model.EstadoActivo {
		prov.Estado = model.EstadoInactivo
	} else {
		prov.Estado = model.EstadoActivo
	}

	if err := c.repo.Update(ctx, prov); err != nil {
		return nil, errors.Internal("error al actualizar el proveedor")
	}
	return prov, nil
}

// Delete 删除供应商. 有采购单的供应商不可删除; 已不存在视为成功
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	prov, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el proveedor"))
	}
	if prov == nil {
		return response.SuccessWithMessage(ctx, "proveedor eliminado correctamente", nil)
	}

	compras, err := c.repo.CountCompras(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al verificar compras asociadas"))
	}
	if compras > 0 {
		return response.AppError(ctx, errors.Association("el proveedor "+prov.Nombre, compras, "compra(s)"))
	}

	if _, err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.AppError(ctx, errors.Internal("error al eliminar el proveedor"))
	}
	return response.SuccessWithMessage(ctx, "proveedor eliminado correctamente", nil)
}

// validate 规则表 + 文档号唯一性检查
func (c *Controller) validate(ctx context.Context, req *SaveRequest, excludeID int64) formkit.Errors {
	errs := common.Validate(rules(), map[string]string{
		"nombre":    req.Nombre,
		"documento": req.Documento,
		"email":     req.Email,
		"telefono":  req.Telefono,
		"direccion": req.Direccion,
	})
	if errs != nil {
		return errs
	}

	docs, err := c.repo.Documentos(ctx, excludeID)
	if err != nil {
		return formkit.Errors{"documento": "no se pudo verificar duplicados"}
	}
	if formkit.IsDuplicate(docs, req.Documento) {
		return formkit.Errors{"documento": "ya existe un proveedor con ese documento"}
	}
	return nil
}
