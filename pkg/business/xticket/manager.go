package xticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/sibuxiangx/acekit/pkg/storage/xvault"
)

const (
	// DefaultLocalCacheSize L1 缓存最大条目数。
	DefaultLocalCacheSize = 128

	// DefaultLocalCacheTTL L1 缓存条目存活时间。
	// ticket 本层不追踪有效期，L1 只是减少 vault 往返；
	// 真正的失效由调用方在下游请求失败后 Delete + 重新采收。
	DefaultLocalCacheTTL = 10 * time.Minute
)

// Manager 以 (userID, serviceName) 为键管理 ticket。
// L1 expirable LRU + L2 xvault.Store 两层，加载用 singleflight 合并。
type Manager struct {
	store xvault.Store
	local *expirable.LRU[string, string]
	sf    singleflight.Group
}

// ManagerOption Manager 配置选项。
type ManagerOption func(*managerConfig)

type managerConfig struct {
	localSize int
	localTTL  time.Duration
}

// WithLocalCacheSize 设置 L1 缓存容量。
func WithLocalCacheSize(n int) ManagerOption {
	return func(c *managerConfig) {
		if n > 0 {
			c.localSize = n
		}
	}
}

// WithLocalCacheTTL 设置 L1 缓存 TTL。
func WithLocalCacheTTL(d time.Duration) ManagerOption {
	return func(c *managerConfig) {
		if d > 0 {
			c.localTTL = d
		}
	}
}

// NewManager 创建 ticket 管理器。
func NewManager(store xvault.Store, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	cfg := &managerConfig{
		localSize: DefaultLocalCacheSize,
		localTTL:  DefaultLocalCacheTTL,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Manager{
		store: store,
		local: expirable.NewLRU[string, string](cfg.localSize, nil, cfg.localTTL),
	}, nil
}

// Key 返回 (userID, serviceName) 对应的存储键。
// 形如 "aac_ticket_2021114514"。
func Key(userID, service string) string {
	return service + "_ticket_" + userID
}

// Get 读取 ticket；不存在返回 ErrTicketNotFound。
func (m *Manager) Get(ctx context.Context, userID, service string) (string, error) {
	key, err := m.key(userID, service)
	if err != nil {
		return "", err
	}

	if ticket, ok := m.local.Get(key); ok {
		return ticket, nil
	}

	ticket, err := m.store.Get(ctx, key)
	if errors.Is(err, xvault.ErrNotFound) {
		return "", ErrTicketNotFound
	}
	if err != nil {
		return "", fmt.Errorf("xticket: load ticket: %w", err)
	}
	m.local.Add(key, ticket)
	return ticket, nil
}

// Set 写入 ticket（覆盖旧值）。
func (m *Manager) Set(ctx context.Context, userID, service, ticket string) error {
	key, err := m.key(userID, service)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, key, ticket); err != nil {
		return fmt.Errorf("xticket: save ticket: %w", err)
	}
	m.local.Add(key, ticket)
	return nil
}

// Delete 删除 ticket（下游发现失效后调用）。
func (m *Manager) Delete(ctx context.Context, userID, service string) error {
	key, err := m.key(userID, service)
	if err != nil {
		return err
	}
	m.local.Remove(key)
	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("xticket: delete ticket: %w", err)
	}
	return nil
}

// Has 判断 ticket 是否存在。
func (m *Manager) Has(ctx context.Context, userID, service string) (bool, error) {
	_, err := m.Get(ctx, userID, service)
	if errors.Is(err, ErrTicketNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ClearUser 删除指定用户在给定服务下的全部 ticket（登出/重置时调用）。
// 存储键以服务名开头（"<service>_ticket_<userID>"），无法按用户前缀
// 批量匹配，因此服务清单由调用方给出；L1 整体失效。
func (m *Manager) ClearUser(ctx context.Context, userID string, services ...string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	m.local.Purge()
	for _, service := range services {
		if err := m.store.Delete(ctx, Key(userID, service)); err != nil {
			return fmt.Errorf("xticket: clear ticket for %s: %w", service, err)
		}
	}
	return nil
}

// ClearService 删除某服务下所有用户的 ticket，借助 Store 的前缀清理。
func (m *Manager) ClearService(ctx context.Context, service string) (int, error) {
	if service == "" {
		return 0, ErrMissingService
	}
	m.local.Purge()
	return m.store.ClearPrefix(ctx, service+"_ticket_")
}

// GetOrHarvest 读取 ticket，未命中时调用 harvest 采收并缓存。
// singleflight 保证同一 (userID, service) 的并发采收只发起一次。
func (m *Manager) GetOrHarvest(
	ctx context.Context,
	userID, service string,
	harvest func(ctx context.Context) (string, error),
) (string, error) {
	if ticket, err := m.Get(ctx, userID, service); err == nil {
		return ticket, nil
	} else if !errors.Is(err, ErrTicketNotFound) {
		return "", err
	}

	key, err := m.key(userID, service)
	if err != nil {
		return "", err
	}
	result, err, _ := m.sf.Do(key, func() (any, error) {
		// double-check：等待期间可能已有并发采收写入
		if ticket, err := m.Get(ctx, userID, service); err == nil {
			return ticket, nil
		}
		ticket, err := harvest(ctx)
		if err != nil {
			return "", err
		}
		if err := m.Set(ctx, userID, service, ticket); err != nil {
			return "", err
		}
		return ticket, nil
	})
	if err != nil {
		return "", err
	}
	ticket, ok := result.(string)
	if !ok || ticket == "" {
		return "", ErrTicketNotFound
	}
	return ticket, nil
}

func (m *Manager) key(userID, service string) (string, error) {
	if userID == "" {
		return "", ErrMissingUserID
	}
	if service == "" {
		return "", ErrMissingService
	}
	return Key(userID, service), nil
}
