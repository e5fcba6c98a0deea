// Package auth 登录会话: 颁发JWT并构建权限快照
package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/salonback/internal/model"
	"github.com/salonback/internal/user"
	pkgauth "github.com/salonback/pkg/auth"
	"github.com/salonback/pkg/errors"
	"github.com/salonback/pkg/middleware"
	"github.com/salonback/pkg/permit"
	"github.com/salonback/pkg/response"
	"github.com/salonback/pkg/router"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录响应: 令牌 + 会话权限快照
type LoginResponse struct {
	Token    string              `json:"token"`
	Usuario  *model.User         `json:"usuario"`
	Permisos map[string][]string `json:"permisos"`
	Admin    bool                `json:"admin"`
}

// Controller 认证控制器
type Controller struct {
	users user.Repository
	jwt   *pkgauth.JWTManager
	store *permit.Store
}

// NewController 创建认证控制器
func NewController(users user.Repository, jwt *pkgauth.JWTManager, store *permit.Store) *Controller {
	return &Controller{users: users, jwt: jwt, store: store}
}

// Prefix 路由前缀
func (c *Controller) Prefix() string { return "/auth" }

// Routes 路由表. 登录为公开路由
func (c *Controller) Routes(mw map[string]fiber.Handler) []router.Route {
	auth := mw["auth"]
	return []router.Route{
		{Method: fiber.MethodPost, Path: "/login", Handler: c.Login},
		{Method: fiber.MethodPost, Path: "/logout", Handler: c.Logout, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/profile", Handler: c.Profile, Middlewares: []fiber.Handler{auth}},
		{Method: fiber.MethodGet, Path: "/permissions", Handler: c.Permissions, Middlewares: []fiber.Handler{auth}},
	}
}

// Login 校验凭据, 颁发令牌并返回权限快照
func (c *Controller) Login(ctx *fiber.Ctx) error {
	var req LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return response.BadRequest(ctx, "cuerpo de solicitud inválido")
	}
	if req.Username == "" || req.Password == "" {
		return response.BadRequest(ctx, "usuario y contraseña son obligatorios")
	}

	u, err := c.users.FindByUsername(ctx.UserContext(), req.Username)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el usuario"))
	}
	if u == nil || !pkgauth.CheckPassword(u.Password, req.Password) {
		return response.Unauthorized(ctx, "usuario o contraseña incorrectos")
	}
	if u.Estado != model.EstadoActivo {
		return response.Forbidden(ctx, "el usuario está inactivo")
	}

	roleCode := u.RolCodigo()
	token, err := c.jwt.GenerateToken(u.ID, u.Username, roleCode)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al generar el token"))
	}

	// 登录时重建快照, 角色策略的变更在下次登录生效
	if err := c.store.Invalidate(ctx.UserContext(), roleCode); err != nil {
		return response.AppError(ctx, errors.Internal("error al preparar permisos de la sesión"))
	}
	snapshot, err := c.store.Get(ctx.UserContext(), roleCode)
	if err != nil || snapshot == nil {
		return response.AppError(ctx, errors.Internal("error al preparar permisos de la sesión"))
	}

	return response.SuccessWithMessage(ctx, "sesión iniciada correctamente", LoginResponse{
		Token:    token,
		Usuario:  u,
		Permisos: snapshot.Modules(),
		Admin:    snapshot.IsAdministrator(),
	})
}

// Logout 关闭会话并使角色快照失效
func (c *Controller) Logout(ctx *fiber.Ctx) error {
	roleCode := middleware.GetRoleCode(ctx)
	if roleCode != "" {
		_ = c.store.Invalidate(ctx.UserContext(), roleCode)
	}
	return response.SuccessWithMessage(ctx, "sesión cerrada correctamente", nil)
}

// Profile 当前用户资料
func (c *Controller) Profile(ctx *fiber.Ctx) error {
	userID := middleware.GetUserID(ctx)
	if userID == 0 {
		return response.Unauthorized(ctx, "")
	}

	u, err := c.users.FindByID(ctx.UserContext(), userID)
	if err != nil {
		return response.AppError(ctx, errors.Internal("error al consultar el perfil"))
	}
	if u == nil {
		return response.AppError(ctx, errors.NotFound("usuario"))
	}
	return response.Success(ctx, u)
}

// Permissions 当前会话的权限快照, UI据此渲染门控
func (c *Controller) Permissions(ctx *fiber.Ctx) error {
	roleCode := middleware.GetRoleCode(ctx)
	if roleCode == "" {
		return response.Forbidden(ctx, "")
	}

	snapshot, err := c.store.Get(ctx.UserContext(), roleCode)
	if err != nil || snapshot == nil {
		return response.Forbidden(ctx, "")
	}

	return response.Success(ctx, fiber.Map{
		"role":    snapshot.Role,
		"admin":   snapshot.IsAdministrator(),
		"modules": snapshot.Modules(),
	})
}
