package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/salonback/pkg/permit"
	"github.com/salonback/pkg/response"
)

// Permission 权限校验中间件, 校验当前角色是否具备模块操作权限
// 快照缺失或权限不足时一律拒绝
func Permission(store *permit.Store, module, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleCode := GetRoleCode(c)
		if roleCode == "" {
			return response.Forbidden(c, "no tiene permisos para realizar esta acción")
		}

		snapshot, err := store.Get(c.Context(), roleCode)
		if err != nil || snapshot == nil {
			return response.Forbidden(c, "no tiene permisos para realizar esta acción")
		}

		if !snapshot.CanAccessModule(module) {
			return response.Forbidden(c, fmt.Sprintf("no tiene acceso al módulo %s", module))
		}

		if !snapshot.Allows(module, action) {
			return response.Forbidden(c, fmt.Sprintf("no tiene permiso para %s en %s", action, module))
		}

		return c.Next()
	}
}
