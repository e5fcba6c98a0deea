package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/salonback/pkg/auth"
	"github.com/salonback/pkg/errors"
	"github.com/salonback/pkg/logger"
	"github.com/salonback/pkg/response"
	"github.com/salonback/pkg/utils"
	"go.uber.org/zap"
)

// JWTAuth JWT认证中间件
func JWTAuth(jwtManager *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			return response.Unauthorized(c, "no se proporcionó token de autenticación")
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			return response.Unauthorized(c, "token de autenticación inválido")
		}

		c.Locals("userId", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("roleCode", claims.RoleCode)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// Recovery 恢复中间件
func Recovery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Path()),
					zap.String("method", c.Method()),
				)
				_ = response.ServerError(c, "")
			}
		}()
		return c.Next()
	}
}

// Cors 跨域中间件
func Cors() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")

		if origin != "" {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			c.Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
			c.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.Next()
	}
}

// RequestID 请求ID中间件
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = utils.UUID()
		}
		c.Locals("requestId", requestID)
		c.Set("X-Request-ID", requestID)
		return c.Next()
	}
}

// OperationLogFunc 操作日志记录回调
type OperationLogFunc func(userID int64, username, module, action, method, path, ip string, status int, latency time.Duration)

// OperationLog 操作日志记录中间件
func OperationLog(logFunc OperationLogFunc, moduleName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()

		if err := c.Next(); err != nil {
			return err
		}

		if logFunc == nil {
			return nil
		}

		userID := GetUserID(c)
		username := GetUsername(c)

		logFunc(
			userID,
			username,
			moduleName,
			actionByMethod(c.Method()),
			c.Method(),
			c.Path(),
			c.IP(),
			c.Response().StatusCode(),
			time.Since(startTime),
		)
		return nil
	}
}

// actionByMethod 根据HTTP方法归类操作
func actionByMethod(method string) string {
	switch method {
	case fiber.MethodPost:
		return "crear"
	case fiber.MethodPut, fiber.MethodPatch:
		return "editar"
	case fiber.MethodDelete:
		return "eliminar"
	case fiber.MethodGet:
		return "consultar"
	default:
		return "otro"
	}
}

// ErrorHandler 统一错误处理中间件
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			var appErr *errors.AppError
			if errors.As(err, &appErr) {
				return response.AppError(c, appErr)
			}
			return response.ServerError(c, "")
		}
		return nil
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *fiber.Ctx) int64 {
	userID := c.Locals("userId")
	if userID == nil {
		return 0
	}
	return userID.(int64)
}

// GetUsername 从上下文获取用户名
func GetUsername(c *fiber.Ctx) string {
	username := c.Locals("username")
	if username == nil {
		return ""
	}
	return username.(string)
}

// GetRoleCode 从上下文获取角色编码
func GetRoleCode(c *fiber.Ctx) string {
	roleCode := c.Locals("roleCode")
	if roleCode == nil {
		return ""
	}
	return roleCode.(string)
}
