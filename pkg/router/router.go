package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Route 路由配置
type Route struct {
	Method      string          // HTTP方法
	Path        string          // 前缀下的子路径; 以完整前缀开头时视为绝对路径
	Handler     fiber.Handler   // 处理函数
	Middlewares []fiber.Handler // 路由级中间件
}

// Registrar 路由注册器接口
type Registrar interface {
	// Prefix 返回路由前缀
	Prefix() string
	// Routes 返回路由配置列表, 接收命名中间件作为参数
	Routes(middlewares map[string]fiber.Handler) []Route
}

// Register 注册控制器路由
func Register(app fiber.Router, middlewares map[string]fiber.Handler, controllers ...Registrar) {
	for _, ctrl := range controllers {
		prefix := ctrl.Prefix()
		g := app.Group(prefix)

		for _, route := range ctrl.Routes(middlewares) {
			handlers := append(append([]fiber.Handler{}, route.Middlewares...), route.Handler)
			if route.Path == prefix || strings.HasPrefix(route.Path, prefix+"/") {
				// 带完整前缀的路径视为绝对路径, 直接注册到app
				app.Add(route.Method, route.Path, handlers...)
			} else {
				// 其余路径(含以/开头的子路径)都挂在前缀组下
				g.Add(route.Method, route.Path, handlers...)
			}
		}
	}
}
