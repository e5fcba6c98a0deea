package service

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

// Controller 服务项目控制器
type Controller struct {
	repo    Repository
	flights *inflight.Group
}

// NewController 创建服务项目控制器
func NewController(repo Repository, flights *inflight.Group) *Controller {
	return &Controller{repo: repo, flights: flights}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/servicios" }

// Routes 路由表
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	perm := func(action string) fiber.Handler {
		return mw["perm:"+permit.ModuleServicios+":"+action]
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

// List 服务项目列表
func (c *Controller) List(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar servicios"))
	}
	return common.Page(ctx, listConfig().Apply(items, common.ParseView(ctx)))
}

// Get 服务项目详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	svc, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el servicio"))
	}
	if svc == nil {
		return response.AppError(ctx, errors.NotFound("servicio"))
	}
	return response.Success(ctx, svc)
}

// Create 创建服务项目
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	if errs := c.validate(ctx.UserContext(), &req, 0); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	svc := &model.Service{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Precio:      req.Precio,
		Duracion:    req.Duracion,
		Estado:      model.EstadoActivo,
	}
	if err := c.repo.Create(ctx.UserContext(), svc); err != nil {
		return response.AppError(ctx, errors.Internal("error al crear el servicio"))
	}
	return response.SuccessWithMessage(ctx, "servicio creado correctamente", svc)
}

// Update 更新服务项目
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	svc, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el servicio"))
	}
	if svc == nil {
		return response.AppError(ctx, errors.NotFound("servicio"))
	}

	if errs := c.validate(ctx.UserContext(), &req, id); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	svc.Nombre = req.Nombre
	svc.Descripcion = req.Descripcion
	svc.Precio = req.Precio
	svc.Duracion = req.Duracion
	if err := c.repo.Update(ctx.UserContext(), svc); err != nil {
		return response.AppError(ctx, errors.Internal("error al actualizar el servicio"))
	}
	return response.SuccessWithMessage(ctx, "servicio actualizado correctamente", svc)
}

// CambiarEstado 切换服务状态
func (c *Controller) CambiarEstado(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	result, _, err := c.flights.Do(inflight.ToggleKey(permit.ModuleServicios, id), func() (interface{}, error) {
		return c.toggle(ctx.UserContext(), id)
	})
	if err != nil {
		return response.AppError(ctx, err)
	}

	svc := result.(*model.Service)
	return response.SuccessWithMessage(ctx, fmt.Sprintf("servicio %s correctamente",
		map[string]string{model.EstadoActivo: "activado", model.EstadoInactivo: "desactivado"}[svc.Estado]), svc)
}

func (c *Controller) toggle(ctx context.Context, id int64) (*model.Service, error) {
	svc, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal("error al consultar el servicio")
	}
	if svc == nil {
		return nil, errors.NotFound("servicio")
	}

	if svc.Estado == model.EstadoActivo {
		svc.Estado = model.EstadoInactivo
	} else {
		svc.Estado = model.EstadoActivo
	}

	if err := c.repo.Update(ctx, svc); err != nil {
		return nil, errors.Internal("error al actualizar el servicio")
	}
	return svc, nil
}

// Delete 删除服务项目. 已不存在视为成功
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	if _, err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.AppError(ctx, errors.Internal("error al eliminar el servicio"))
	}
	return response.SuccessWithMessage(ctx, "servicio eliminado correctamente", nil)
}

// validate 规则表 + 重名检查
func (c *Controller) validate(ctx context.Context, req *SaveRequest, excludeID int64) formkit.Errors {
	errs := common.Validate(rules(), map[string]string{
		"nombre":      req.Nombre,
		"descripcion": req.Descripcion,
		"precio":      strconv.FormatFloat(req.Precio, 'f', -1, 64),
		"duracion":    strconv.Itoa(req.Duracion),
	})
	if errs != nil {
		return errs
	}

	nombres, err := c.repo.Nombres(ctx, excludeID)
	if err != nil {
		return formkit.Errors{"nombre": "no se pudo verificar duplicados"}
	}
	if formkit.IsDuplicate(nombres, req.Nombre) {
		return formkit.Errors{"nombre": "ya existe un servicio con ese nombre"}
	}
	return nil
}
