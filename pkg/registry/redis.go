package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/salonback/pkg/logger"
	"go-micro.dev/v5/registry"
	"go.uber.org/zap"
)

const (
	servicePrefix = "registry:service:"
	ttlDuration   = 30 * time.Second
)

// RedisRegistry 基于Redis的服务注册中心, 带心跳续期
type RedisRegistry struct {
	client    *goredis.Client
	mu        sync.Mutex
	heartbeat map[string]*time.Ticker
}

// NewRedisRegistry 创建基于Redis的注册中心
func NewRedisRegistry(client *goredis.Client) registry.Registry {
	return &RedisRegistry{
		client:    client,
		heartbeat: make(map[string]*time.Ticker),
	}
}

// Init 初始化
func (r *RedisRegistry) Init(opts ...registry.Option) error {
	return nil
}

// Options 获取选项
func (r *RedisRegistry) Options() registry.Options {
	return registry.Options{}
}

// Register 注册服务
func (r *RedisRegistry) Register(s *registry.Service, opts ...registry.RegisterOption) error {
	if s == nil || len(s.Nodes) == 0 {
		return fmt.Errorf("service or nodes cannot be empty")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal service: %w", err)
	}

	key := servicePrefix + s.Name
	if err := r.client.Set(context.Background(), key, data, ttlDuration).Err(); err != nil {
		return fmt.Errorf("set registry key: %w", err)
	}

	logger.Debug("servicio registrado",
		zap.String("service", s.Name),
		zap.Int("nodes", len(s.Nodes)),
	)

	r.startHeartbeat(s)
	return nil
}

// Deregister 注销服务
func (r *RedisRegistry) Deregister(s *registry.Service, opts ...registry.DeregisterOption) error {
	if s == nil {
		return fmt.Errorf("service cannot be nil")
	}

	r.stopHeartbeat(s.Name)
	return r.client.Del(context.Background(), servicePrefix+s.Name).Err()
}

// GetService 获取服务
func (r *RedisRegistry) GetService(name string, opts ...registry.GetOption) ([]*registry.Service, error) {
	data, err := r.client.Get(context.Background(), servicePrefix+name).Bytes()
	if err == goredis.Nil {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var svc registry.Service
	if err := json.Unmarshal(data, &svc); err != nil {
		return nil, fmt.Errorf("unmarshal service: %w", err)
	}
	return []*registry.Service{&svc}, nil
}

// ListServices 列出所有服务
func (r *RedisRegistry) ListServices(opts ...registry.ListOption) ([]*registry.Service, error) {
	ctx := context.Background()
	keys, err := r.client.Keys(ctx, servicePrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	services := make([]*registry.Service, 0, len(keys))
	for _, key := range keys {
		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var svc registry.Service
		if err := json.Unmarshal(data, &svc); err != nil {
			logger.Warn("entrada de registro inválida", zap.String("key", key), zap.Error(err))
			continue
		}
		services = append(services, &svc)
	}
	return services, nil
}

// Watch 监听服务变化
func (r *RedisRegistry) Watch(opts ...registry.WatchOption) (registry.Watcher, error) {
	return &stopWatcher{exit: make(chan bool)}, nil
}

// String 返回注册中心名称
func (r *RedisRegistry) String() string {
	return "redis"
}

// startHeartbeat 启动心跳续期
func (r *RedisRegistry) startHeartbeat(s *registry.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ticker, ok := r.heartbeat[s.Name]; ok {
		ticker.Stop()
	}

	ticker := time.NewTicker(ttlDuration / 3)
	r.heartbeat[s.Name] = ticker

	go func() {
		for range ticker.C {
			data, err := json.Marshal(s)
			if err != nil {
				continue
			}
			_ = r.client.Set(context.Background(), servicePrefix+s.Name, data, ttlDuration).Err()
		}
	}()
}

// stopHeartbeat 停止心跳
func (r *RedisRegistry) stopHeartbeat(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ticker, ok := r.heartbeat[name]; ok {
		ticker.Stop()
		delete(r.heartbeat, name)
	}
}

type stopWatcher struct {
	exit chan bool
}

func (w *stopWatcher) Next() (*registry.Result, error) {
	<-w.exit
	return nil, registry.ErrWatcherStopped
}

func (w *stopWatcher) Stop() {
	select {
	case <-w.exit:
	default:
		close(w.exit)
	}
}
