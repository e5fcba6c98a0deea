package client

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

// Controller 客户控制器
type Controller struct {
	repo    Repository
	flights *inflight.Group
}

// NewController 创建客户控制器
func NewController(repo Repository, flights *inflight.Group) *Controller {
	return &Controller{repo: repo, flights: flights}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/clientes" }

// Routes 路由表
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	perm := func(action string) fiber.Handler {
		return mw["perm:"+permit.ModuleClientes+":"+action]
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

// List 客户列表
func (c *Controller) List(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar clientes"))
	}
	return common.Page(ctx, listConfig().Apply(items, common.ParseView(ctx)))
}

// Get 客户详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	cli, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el cliente"))
	}
	if cli == nil {
		return response.AppError(ctx, errors.NotFound("cliente"))
	}
	return response.Success(ctx, cli)
}

// Create 创建客户
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	if errs := c.validate(ctx.UserContext(), &req, 0); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	cli := &model.Client{
		Nombre:    req.Nombre,
		Apellido:  req.Apellido,
		Documento: req.Documento,
		Email:     req.Email,
		Telefono:  req.Telefono,
		Estado:    model.EstadoActivo,
	}
	if err := c.repo.Create(ctx.UserContext(), cli); err != nil {
		return response.AppError(ctx, errors.Internal("error al crear el cliente"))
	}
	return response.SuccessWithMessage(ctx, "cliente creado correctamente", cli)
}

// Update 更新客户
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	var req SaveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	cli, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el cliente"))
	}
	if cli == nil {
		return response.AppError(ctx, errors.NotFound("cliente"))
	}

	if errs := c.validate(ctx.UserContext(), &req, id); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	cli.Nombre = req.Nombre
	cli.Apellido = req.Apellido
	cli.Documento = req.Documento
	cli.Email = req.Email
	cli.Telefono = req.Telefono
	if err := c.repo.Update(ctx.UserContext(), cli); err != nil {
		return response.AppError(ctx, errors.Internal("error al actualizar el cliente"))
	}
	return response.SuccessWithMessage(ctx, "cliente actualizado correctamente", cli)
}

// CambiarEstado 切换客户状态
func (c *Controller) CambiarEstado(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	result, _, err := c.flights.Do(inflight.ToggleKey(permit.ModuleClientes, id), func() (interface{}, error) {
		return c.toggle(ctx.UserContext(), id)
	})
	if err != nil {
		return response.AppError(ctx, err)
	}

	cli := result.(*model.Client)
	return response.SuccessWithMessage(ctx, fmt.Sprintf("cliente %s correctamente",
		map[string]string{model.EstadoActivo: "activado", model.EstadoInactivo: "desactivado"}[cli.Estado]), cli)
}

func (c *Controller) toggle(ctx context.Context, id int64) (*model.Client, error) {
	cli, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Internal("error al consultar el cliente")
	}
	if cli == nil {
		return nil, errors.NotFound("cliente")
	}

	if cli.Estado == model.EstadoActivo {
		cli.Estado = model.EstadoInactivo
	} else {
		cli.Estado = model.EstadoActivo
	}

	if err := c.repo.Update(ctx, cli); err != nil {
		return nil, errors.Internal("error al actualizar el cliente")
	}
	return cli, nil
}

// Delete 删除客户. 已不存在视为成功
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	if _, err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.AppError(ctx, errors.Internal("error al eliminar el cliente"))
	}
	return response.SuccessWithMessage(ctx, "cliente eliminado correctamente", nil)
}

// validate 规则表 + documento/email/teléfono 唯一性检查
func (c *Controller) validate(ctx context.Context, req *SaveRequest, excludeID int64) formkit.Errors {
	errs := common.Validate(rules(), map[string]string{
		"nombre":    req.Nombre,
		"apellido":  req.Apellido,
		"documento": req.Documento,
		"email":     req.Email,
		"telefono":  req.Telefono,
	})
	if errs != nil {
		return errs
	}

	checks := []struct {
		column string
		value  string
		msg    string
	}{
		{"documento", req.Documento, "ya existe un cliente con ese documento"},
		{"email", req.Email, "ya existe un cliente con ese email"},
		{"telefono", req.Telefono, "ya existe un cliente con ese teléfono"},
	}
	for _, chk := range checks {
		if chk.value == "" {
			continue
		}
		values, err := c.repo.Column(ctx, chk.column, excludeID)
		if err != nil {
			return formkit.Errors{chk.column: "no se pudo verificar duplicados"}
		}
		if formkit.IsDuplicate(values, chk.value) {
			return formkit.Errors{chk.column: chk.msg}
		}
	}
	return nil
}
