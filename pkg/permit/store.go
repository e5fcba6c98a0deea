package permit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/redis/go-redis/v9"
	"github.com/salonback/pkg/cache"
	"github.com/salonback/pkg/database"
	"github.com/salonback/pkg/logger"
	"go.uber.org/zap"
)

const (
	cachePrefix = "permit"
	// InvalidationChannel 角色权限变更广播频道
	InvalidationChannel = "permit:invalidate"
)

// Store 权限快照存储：casbin 策略构建 + 两级缓存(进程内/redis)。
// 快照只在 登录/登出/角色变更 时重算(变更通过广播失效)。
type Store struct {
	enforcer *casbin.Enforcer
	mem      *cache.Cache
	remote   *database.Cache
	client   *redis.Client
	ttl      time.Duration
}

// NewStore 创建快照存储
func NewStore(enforcer *casbin.Enforcer) *Store {
	return NewStoreWithClient(enforcer, database.GetRedis())
}

// NewStoreWithClient 使用指定Redis客户端创建(测试用)
func NewStoreWithClient(enforcer *casbin.Enforcer, client *redis.Client) *Store {
	return &Store{
		enforcer: enforcer,
		mem:      cache.New(),
		remote:   database.NewCacheWithClient(client, cachePrefix),
		client:   client,
		ttl:      24 * time.Hour,
	}
}

// subject casbin 主体命名
func subject(role string) string {
	return "role:" + role
}

// Build 从casbin策略构建角色快照
func (st *Store) Build(role string) *Snapshot {
	admin := role == RoleAdministrador

	var claims []Claim
	if st.enforcer != nil {
		policies, err := st.enforcer.GetFilteredPolicy(0, subject(role))
		if err != nil {
			logger.Error("failed to load role policies", zap.String("role", role), zap.Error(err))
			// 失败关闭：无claims的快照对一切判定为否
			return NewSnapshot(role, admin, nil)
		}
		for _, p := range policies {
			if len(p) >= 3 {
				claims = append(claims, Claim{Module: p[1], Action: p[2]})
			}
		}
	}

	return NewSnapshot(role, admin, claims)
}

// Get 获取角色快照：进程内缓存 → redis → 重建
func (st *Store) Get(ctx context.Context, role string) (*Snapshot, error) {
	var snap Snapshot
	if err := st.mem.Get(role, &snap); err == nil {
		snap.index()
		return &snap, nil
	}

	raw, err := st.remote.Get(ctx, role)
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(raw), &snap); jsonErr == nil {
			snap.index()
			_ = st.mem.SetWithExpiration(role, &snap, time.Minute)
			return &snap, nil
		}
	}

	built := st.Build(role)
	data, err := json.Marshal(built)
	if err != nil {
		return built, nil
	}
	if err := st.remote.Set(ctx, role, data, st.ttl); err != nil {
		logger.Warn("failed to cache permission snapshot", zap.String("role", role), zap.Error(err))
	}
	_ = st.mem.SetWithExpiration(role, built, time.Minute)
	return built, nil
}

// Invalidate 失效角色快照并广播给其他节点
func (st *Store) Invalidate(ctx context.Context, role string) error {
	st.mem.Delete(role)
	if err := st.remote.Del(ctx, role); err != nil {
		return err
	}
	return st.client.Publish(ctx, InvalidationChannel, role).Err()
}

// Listen 订阅失效广播，清除本地进程内缓存。阻塞直到ctx取消。
func (st *Store) Listen(ctx context.Context) {
	pubsub := st.client.Subscribe(ctx, InvalidationChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			logger.Info("permission snapshot invalidated", zap.String("role", msg.Payload))
			st.mem.Delete(msg.Payload)
		}
	}
}
