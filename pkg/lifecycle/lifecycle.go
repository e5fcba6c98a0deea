package lifecycle

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/salonback/pkg/logger"
	"go-micro.dev/v5/registry"
	"go.uber.org/zap"
)

// Hook 生命周期钩子
type Hook func() error

// Service 服务包装器, 负责注册, 启动, 优雅关闭
type Service struct {
	name    string
	nodeID  string
	address string
	reg     registry.Registry
	regInfo *registry.Service
	app     *fiber.App

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// Builder 服务构建器, 链式调用创建服务
type Builder struct {
	svc *Service
}

// New 创建服务构建器
func New(name string) *Builder {
	return &Builder{
		svc: &Service{
			name:   name,
			nodeID: name + "-1",
		},
	}
}

// WithNodeID 设置节点ID
func (b *Builder) WithNodeID(nodeID string) *Builder {
	b.svc.nodeID = nodeID
	return b
}

// WithAddress 设置监听地址
func (b *Builder) WithAddress(addr string) *Builder {
	b.svc.address = addr
	return b
}

// WithRegistry 设置服务注册中心
func (b *Builder) WithRegistry(reg registry.Registry) *Builder {
	b.svc.reg = reg
	return b
}

// WithService 设置服务注册信息
func (b *Builder) WithService(info *registry.Service) *Builder {
	b.svc.regInfo = info
	return b
}

// WithApp 设置Fiber应用
func (b *Builder) WithApp(app *fiber.App) *Builder {
	b.svc.app = app
	return b
}

// OnStart 添加启动钩子
func (b *Builder) OnStart(fn Hook) *Builder {
	b.svc.onStart = append(b.svc.onStart, fn)
	return b
}

// OnReady 添加就绪钩子
func (b *Builder) OnReady(fn Hook) *Builder {
	b.svc.onReady = append(b.svc.onReady, fn)
	return b
}

// OnStop 添加停止钩子
func (b *Builder) OnStop(fn Hook) *Builder {
	b.svc.onStop = append(b.svc.onStop, fn)
	return b
}

// Build 构建服务
func (b *Builder) Build() *Service {
	s := b.svc
	if s.regInfo == nil && s.name != "" && s.address != "" {
		s.regInfo = &registry.Service{
			Name:    s.name,
			Version: "1.0.0",
			Nodes: []*registry.Node{
				{Id: s.nodeID, Address: s.address},
			},
		}
	}
	return s
}

// Run 构建并运行服务
func (b *Builder) Run() error {
	return b.Build().Run()
}

// Run 运行服务直到收到退出信号
func (s *Service) Run() error {
	for _, fn := range s.onStart {
		if err := fn(); err != nil {
			return fmt.Errorf("start hook: %w", err)
		}
	}

	if s.reg != nil && s.regInfo != nil {
		if err := s.reg.Register(s.regInfo); err != nil {
			return fmt.Errorf("register service: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("servicio iniciado",
			zap.String("service", s.name),
			zap.String("address", s.address),
		)
		if err := s.app.Listen(s.address); err != nil {
			errCh <- err
		}
	}()

	// 等待监听端口起来后执行就绪钩子
	time.Sleep(100 * time.Millisecond)
	for _, fn := range s.onReady {
		if err := fn(); err != nil {
			return fmt.Errorf("ready hook: %w", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("señal de salida recibida, cerrando servicio")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	return s.Shutdown()
}

// Shutdown 优雅关闭服务
func (s *Service) Shutdown() error {
	for _, fn := range s.onStop {
		if err := fn(); err != nil {
			logger.Error("fallo en hook de parada", zap.Error(err))
		}
	}

	if s.reg != nil && s.regInfo != nil {
		if err := s.reg.Deregister(s.regInfo); err != nil {
			logger.Error("fallo al anular registro del servicio", zap.Error(err))
		}
	}

	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			logger.Error("fallo al cerrar el servidor HTTP", zap.Error(err))
		}
	}

	logger.Info("servicio detenido", zap.String("service", s.name))
	return nil
}
