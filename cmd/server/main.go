package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authctl "github.com/salonback/internal/auth"
	"github.com/salonback/internal/category"
	"github.com/salonback/internal/client"
	"github.com/salonback/internal/model"
	"github.com/salonback/internal/provider"
	"github.com/salonback/internal/purchase"
	"github.com/salonback/internal/service"
	"github.com/salonback/internal/stockdraw"
	"github.com/salonback/internal/supply"
	"github.com/salonback/internal/user"
	"github.com/salonback/pkg/apiclient"
	"github.com/salonback/pkg/auth"
	"github.com/salonback/pkg/config"
	"github.com/salonback/pkg/database"
	"github.com/salonback/pkg/inflight"
	"github.com/salonback/pkg/lifecycle"
	"github.com/salonback/pkg/logger"
	"github.com/salonback/pkg/middleware"
	"github.com/salonback/pkg/permit"
	"github.com/salonback/pkg/registry"
	"github.com/salonback/pkg/response"
	"github.com/salonback/pkg/router"
	"github.com/salonback/pkg/utils"
)

func main() {
	// 初始化配置
	if err := config.Init(""); err != nil {
		panic(fmt.Sprintf("配置初始化失败: %v", err))
	}
	cfg := config.Get()

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		panic(fmt.Sprintf("日志初始化失败: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatalf("数据库初始化失败: %v", err)
	}
	defer database.Close()

	// 初始化Redis
	if err := database.InitRedis(&cfg.Redis); err != nil {
		logger.Fatalf("Redis初始化失败: %v", err)
	}
	defer database.CloseRedis()

	// 自动迁移
	if err := database.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Category{},
		&model.Supply{},
		&model.Provider{},
		&model.Purchase{},
		&model.PurchaseDetail{},
		&model.Service{},
		&model.StockDraw{},
		&model.StockDrawDetail{},
		&model.StockMovement{},
		&model.Client{},
	); err != nil {
		logger.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化Casbin
	if err := auth.InitCasbin(database.Get(), &cfg.Casbin); err != nil {
		logger.Fatalf("Casbin初始化失败: %v", err)
	}

	// 种子数据
	if err := seed(database.Get()); err != nil {
		logger.Fatalf("种子数据初始化失败: %v", err)
	}

	// 权限快照存储, 订阅失效广播
	store := permit.NewStore(auth.GetEnforcer())
	listenCtx, cancelListen := context.WithCancel(context.Background())
	go store.Listen(listenCtx)

	jwtManager := auth.NewJWTManager(&cfg.JWT)
	casbinSvc := auth.NewCasbinService()
	flights := inflight.New()

	// 外部预约服务客户端
	agenda := apiclient.New(cfg.Agenda.BaseURL,
		apiclient.WithTimeout(time.Duration(cfg.Agenda.Timeout)*time.Second))

	// 仓储
	categoryRepo := category.NewRepository()
	supplyRepo := supply.NewRepository()
	providerRepo := provider.NewRepository()
	purchaseRepo := purchase.NewRepository()
	serviceRepo := service.NewRepository()
	stockdrawRepo := stockdraw.NewRepository()
	userRepo := user.NewRepository()
	clientRepo := client.NewRepository()

	// 控制器
	controllers := []router.Registrar{
		authctl.NewController(userRepo, jwtManager, store),
		category.NewController(categoryRepo, supplyRepo, flights),
		supply.NewController(supplyRepo, categoryRepo, flights),
		provider.NewController(providerRepo, flights),
		purchase.NewController(purchaseRepo, providerRepo, supplyRepo, flights),
		service.NewController(serviceRepo, flights),
		stockdraw.NewController(stockdrawRepo, userRepo, flights),
		user.NewController(userRepo, store, casbinSvc, agenda, flights),
		client.NewController(clientRepo, flights),
	}

	// Fiber应用
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	})
	app.Use(middleware.Recovery())
	app.Use(middleware.Cors())
	app.Use(middleware.RequestID())
	app.Use(middleware.OperationLog(logOperation, "api"))

	app.Get("/health", func(c *fiber.Ctx) error {
		return response.Success(c, fiber.Map{
			"status":  "ok",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		})
	})

	// 命名中间件: auth 与各模块动作的权限检查
	middlewares := map[string]fiber.Handler{
		"auth": middleware.JWTAuth(jwtManager),
	}
	for _, m := range permit.AllModules {
		for _, a := range permit.AllActions {
			middlewares[fmt.Sprintf("perm:%s:%s", m, a)] = middleware.Permission(store, m, a)
		}
	}

	api := app.Group("/api")
	router.Register(api, middlewares, controllers...)

	// 服务注册与优雅退出
	var reg = registry.NewMemoryRegistry()
	if cfg.Redis.Mode != "memory" {
		reg = registry.NewRedisRegistry(database.GetRedis())
	}

	nodeID := utils.UUIDWithoutDash()
	err := lifecycle.New(cfg.App.Name).
		WithNodeID(nodeID).
		WithAddress(cfg.Server.Addr()).
		WithRegistry(reg).
		WithService(registry.BuildService(&registry.ServiceConfig{
			Name:     cfg.App.Name,
			Version:  cfg.App.Version,
			NodeID:   nodeID,
			Address:  cfg.Server.Addr(),
			BasePath: "/api",
		})).
		WithApp(app).
		OnReady(func() error {
			logger.Infof("%s 启动完成, 监听 %s", cfg.App.Name, cfg.Server.Addr())
			return nil
		}).
		OnStop(func() error {
			cancelListen()
			return nil
		}).
		Run()
	if err != nil {
		logger.Fatalf("服务运行失败: %v", err)
	}
}

// logOperation 操作日志落到结构化日志
func logOperation(userID int64, username, module, action, method, path, ip string, status int, latency time.Duration) {
	logger.Info("operación",
		zap.Int64("userId", userID),
		zap.String("username", username),
		zap.String("module", module),
		zap.String("action", action),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("ip", ip),
		zap.Int("status", status),
		zap.Duration("latency", latency))
}

// seed 初始化管理员角色与账号
func seed(db *gorm.DB) error {
	var role model.Role
	err := db.Where("codigo = ?", permit.RoleAdministrador).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role = model.Role{
			Codigo:      permit.RoleAdministrador,
			Nombre:      "Administrador",
			Descripcion: "acceso completo a todos los módulos",
		}
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var count int64
	if err := db.Model(&model.User{}).Where("rol_id = ?", role.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := auth.HashPassword("admin123")
	if err != nil {
		return err
	}
	admin := model.User{
		Username: "admin",
		Password: hashed,
		Nombre:   "Administrador",
		Email:    "admin@salon.local",
		RolID:    role.ID,
		Estado:   model.EstadoActivo,
	}
	return db.Create(&admin).Error
}
