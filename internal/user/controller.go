package user

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/salonback/internal/common"
	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/auth"
	"github.com/salonback/pkg/dal"
	"github.com/salonback/pkg/errors"
	"github.com/salonback/pkg/formkit"
	"github.com/salonback/pkg/inflight"
	"github.com/salonback/pkg/permit"
	"github.com/salonback/pkg/response"
	"github.com/salonback/pkg/router"
	"github.com/salonback/pkg/utils"
)

// AgendaAPI 外部预约服务, 由apiclient实现
type AgendaAPI interface {
	FetchList(path string, dest interface{}) error
}

// Cita 预约服务返回的最小形状
type Cita struct {
	ID     int64  `json:"id"`
	Estado string `json:"estado"`
}

// Controller 用户控制器
type Controller struct {
	repo    Repository
	store   *permit.Store
	casbin  *auth.CasbinService
	agenda  AgendaAPI
	flights *inflight.Group
}

// NewController 创建用户控制器
func NewController(repo Repository, store *permit.Store, casbin *auth.CasbinService, agenda AgendaAPI, flights *inflight.Group) *Controller {
	return &Controller{repo: repo, store: store, casbin: casbin, agenda: agenda, flights: flights}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/usuarios" }

// Routes 路由表. 角色路由在 /:id 之前注册
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	perm := func(action string) fiber.Handler {
		return mw["perm:"+permit.ModuleUsuarios+":"+action]
	}
	return []router.Route{
		{Method: fiber.MethodGet, Path: "", Handler: c.List, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/roles", Handler: c.Roles, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/roles/:codigo/permisos", Handler: c.RoleClaims, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodPut, Path: "/roles/:codigo/permisos", Handler: c.SetRoleClaims, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodGet, Path: "/:id", Handler: c.Get, Middlewares: []fiber.Handler{auth, perm(permit.ActionVerDetalles)}},
		{Method: fiber.MethodGet, Path: "/:id/verificar_citas", Handler: c.VerificarCitas, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodPost, Path: "", Handler: c.Create, Middlewares: []fiber.Handler{auth, perm(permit.ActionCrear)}},
		{Method: fiber.MethodPut, Path: "/:id", Handler: c.Update, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodPatch, Path: "/:id/cambiar_estado", Handler: c.CambiarEstado, Middlewares: []fiber.Handler{auth, perm(permit.ActionEditar)}},
		{Method: fiber.MethodDelete, Path: "/:id", Handler: c.Delete, Middlewares: []fiber.Handler{auth, perm(permit.ActionEliminar)}},
	}
}

// List 用户列表
func (c *Controller) List(ctx *fiber.Ctx) error {
	items, err := c.repo.FindAll(ctx.UserContext(), nil, dal.WithPreload("Rol"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar usuarios"))
	}
	return common.Page(ctx, listConfig().Apply(items, common.ParseView(ctx)))
}

// Get 用户详情
func (c *Controller) Get(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	u, err := c.repo.FindByID(ctx.UserContext(), id, dal.WithPreload("Rol"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el usuario"))
	}
	if u == nil {
		return response.AppError(ctx, errors.NotFound("usuario"))
	}
	return response.Success(ctx, u)
}

// Roles 角色目录
func (c *Controller) Roles(ctx *fiber.Ctx) error {
	roles, err := c.repo.Roles(ctx.UserContext())
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar roles"))
	}
	return response.Success(ctx, roles)
}

// RoleClaims 角色当前能力表
func (c *Controller) RoleClaims(ctx *fiber.Ctx) error {
	codigo := ctx.Params("codigo")
	policies := c.casbin.GetClaimsForRole(codigo)

	claims := make([]ClaimRequest, 0, len(policies))
	for _, p := range policies {
		if len(p) < 3 {
			continue
		}
		claims = append(claims, ClaimRequest{Module: p[1], Action: p[2]})
	}
	return response.Success(ctx, claims)
}

// SetRoleClaims 整体替换角色能力表并广播快照失效
func (c *Controller) SetRoleClaims(ctx *fiber.Ctx) error {
	codigo := ctx.Params("codigo")
	if codigo == permit.RoleAdministrador {
		return response.AppError(ctx, errors.BadRequest("el rol administrador no es configurable"))
	}

	var req SetClaimsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	pairs := make([][2]string, 0, len(req.Claims))
	for _, cl := range req.Claims {
		if !validClaim(cl.Module, cl.Action) {
			return response.AppError(ctx, errors.BadRequest(
				fmt.Sprintf("permiso desconocido: %s/%s", cl.Module, cl.Action)))
		}
		pairs = append(pairs, [2]string{cl.Module, cl.Action})
	}

	if err := c.casbin.SyncRoleClaims(codigo, pairs); err != nil {
		return response.AppError(ctx, errors.Internal("error al guardar permisos del rol"))
	}
	if err := c.store.Invalidate(ctx.UserContext(), codigo); err != nil {
		return response.AppError(ctx, errors.Internal("error al invalidar permisos en caché"))
	}
	return response.SuccessWithMessage(ctx, "permisos del rol actualizados correctamente", nil)
}

// VerificarCitas 停用前检查预约服务的未完成预约
func (c *Controller) VerificarCitas(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	u, err := c.repo.FindByID(ctx.UserContext(), id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el usuario"))
	}
	if u == nil {
		return response.AppError(ctx, errors.NotFound("usuario"))
	}

	pendientes, err := c.citasPendientes(id)
	if err != nil {
		return response.AppError(ctx, errors.Internal("no se pudieron verificar las citas asociadas"))
	}

	return response.Success(ctx, VerificarCitasResponse{
		PuedeDesactivar: pendientes == 0,
		CitasPendientes: pendientes,
		Usuario:         u.Nombre,
	})
}

// Create 创建用户
func (c *Controller) Create(ctx *fiber.Ctx) error {
	var req CreateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	if errs := c.validate(ctx.UserContext(), req.Username, req.Password, req.Nombre,
		req.Email, req.Telefono, req.RolID, true, 0); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al procesar la contraseña"))
	}

	u := &model.User{
		Username: req.Username,
		Password: hashed,
		Nombre:   req.Nombre,
		Email:    req.Email,
		Telefono: req.Telefono,
		RolID:    req.RolID,
		Estado:   model.EstadoActivo,
	}
	if err := c.repo.Create(ctx.UserContext(), u); err != nil {
		return response.AppError(ctx, errors.Internal("error al crear el usuario"))
	}

	created, err := c.repo.FindByID(ctx.UserContext(), u.ID, dal.WithPreload("Rol"))
	if err != nil || created == nil {
		return response.SuccessWithMessage(ctx, "usuario creado correctamente", u)
	}
	return response.SuccessWithMessage(ctx, "usuario creado correctamente", created)
}

// Update 更新用户. 改变角色时旧角色与新角色的快照都失效
func (c *Controller) Update(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	var req UpdateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}

	u, err := c.repo.FindByID(ctx.UserContext(), id, dal.WithPreload("Rol"))
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el usuario"))
	}
	if u == nil {
		return response.AppError(ctx, errors.NotFound("usuario"))
	}

	if errs := c.validate(ctx.UserContext(), req.Username, req.Password, req.Nombre,
		req.Email, req.Telefono, req.RolID, false, id); errs != nil {
		return response.AppError(ctx, errors.Validation(errs))
	}

	oldRole := u.RolCodigo()
	roleChanged := req.RolID != u.RolID

	u.Username = req.Username
	u.Nombre = req.Nombre
	u.Email = req.Email
	u.Telefono = req.Telefono
	u.RolID = req.RolID
	if req.Password != "" {
		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			return response.AppError(ctx, errors.Internal("error al procesar la contraseña"))
		}
		u.Password = hashed
	}

	if err := c.repo.Update(ctx.UserContext(), u); err != nil {
		return response.AppError(ctx, errors.Internal("error al actualizar el usuario"))
	}

	// 角色变更后立即失效新旧角色的权限快照, 不依赖后面的回读
	if roleChanged {
		_ = c.store.Invalidate(ctx.UserContext(), oldRole)
		if newRole, err := c.repo.FindRole(ctx.UserContext(), req.RolID); err == nil && newRole != nil {
			_ = c.store.Invalidate(ctx.UserContext(), newRole.Codigo)
		}
	}

	updated, err := c.repo.FindByID(ctx.UserContext(), id, dal.WithPreload("Rol"))
	if err != nil || updated == nil {
		return response.SuccessWithMessage(ctx, "usuario actualizado correctamente", u)
	}
	return response.SuccessWithMessage(ctx, "usuario actualizado correctamente", updated)
}

// CambiarEstado 切换用户状态. 停用前查询预约服务, 查询失败保守拒绝
func (c *Controller) CambiarEstado(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	result, _, err := c.flights.Do(inflight.ToggleKey(permit.ModuleUsuarios, id), func() (interface{}, error) {
		return c.toggle(ctx.UserContext(), id)
	})
	if err != nil {
		return response.AppError(ctx, err)
	}

	u := result.(*model.User)
	return response.SuccessWithMessage(ctx, fmt.Sprintf("usuario %s correctamente",
		map[string]string{model.EstadoActivo: "activado", model.EstadoInactivo: "desactivado"}[u.Estado]), u)
}

func (c *Controller) toggle(ctx context.Context, id int64) (*model.User, error) {
	u, err := c.repo.FindByID(ctx, id, dal.WithPreload("Rol"))
	if err != nil {
		return nil, errors.Internal("error al consultar el usuario")
	}
	if u == nil {
		return nil, errors.NotFound("usuario")
	}

	if u.Estado == model.EstadoActivo {
		pendientes, err := c.citasPendientes(id)
		if err != nil {
			return nil, errors.Internal("no se pudieron verificar las citas asociadas")
		}
		if pendientes > 0 {
			return nil, errors.Association("el usuario "+u.Nombre, int64(pendientes), "cita(s) pendiente(s)")
		}
		u.Estado = model.EstadoInactivo
	} else {
		u.Estado = model.EstadoActivo
	}

	if err := c.repo.Update(ctx, u); err != nil {
		return nil, errors.Internal("error al actualizar el usuario")
	}
	return u, nil
}

// Delete 删除用户. 已不存在视为成功
func (c *Controller) Delete(ctx *fiber.Ctx) error {
	id, err := dal.ParseInt64ID(ctx.Params("id"))
	if err != nil {
		return response.BadRequest(ctx, "id inválido")
	}

	if _, err := c.repo.Delete(ctx.UserContext(), id); err != nil {
		return response.AppError(ctx, errors.Internal("error al eliminar el usuario"))
	}
	return response.SuccessWithMessage(ctx, "usuario eliminado correctamente", nil)
}

// citasPendientes 查询预约服务中该用户的未完成预约数
func (c *Controller) citasPendientes(usuarioID int64) (int, error) {
	if c.agenda == nil {
		return 0, nil
	}
	var citas []Cita
	path := fmt.Sprintf("/citas?usuario_id=%d&estado=pendiente", usuarioID)
	if err := c.agenda.FetchList(path, &citas); err != nil {
		return 0, err
	}
	return len(citas), nil
}

// validate 规则表 + 用户名/email唯一性 + 角色存在性
func (c *Controller) validate(ctx context.Context, username, password, nombre, email, telefono string,
	rolID int64, requirePassword bool, excludeID int64) formkit.Errors {

	rolValue := ""
	if rolID > 0 {
		rolValue = strconv.FormatInt(rolID, 10)
	}
	errs := common.Validate(rules(requirePassword), map[string]string{
		"username": username,
		"password": password,
		"nombre":   nombre,
		"email":    email,
		"telefono": telefono,
		"rol_id":   rolValue,
	})
	if errs != nil {
		return errs
	}

	role, err := c.repo.FindRole(ctx, rolID)
	if err != nil {
		return formkit.Errors{"rol_id": "no se pudo verificar el rol"}
	}
	if role == nil {
		return formkit.Errors{"rol_id": "el rol seleccionado no existe"}
	}

	for _, chk := range []struct {
		column string
		value  string
		msg    string
	}{
		{"username", username, "ya existe un usuario con ese username"},
		{"email", email, "ya existe un usuario con ese email"},
	} {
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

// validClaim 校验 (模块, 动作) 是否在词汇表内
func validClaim(module, action string) bool {
	return utils.Contains(permit.AllModules, module) && utils.Contains(permit.AllActions, action)
}
