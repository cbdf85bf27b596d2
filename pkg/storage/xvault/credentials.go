package xvault

import (
	"context"
	"errors"
	"fmt"
)

// 会话态凭据的存储键。
const (
	KeyUserID     = "user_id"
	KeyECPassword = "ec_password"
	KeyPassword   = "password"
)

// 记住态凭据的存储键。
const (
	KeyRememberedUserID      = "remembered_user_id"
	KeyRememberedECPassword  = "remembered_ec_password"
	KeyRememberedPassword    = "remembered_password"
	KeyRememberPasswordFlag  = "remember_password_enabled"
	rememberEnabledTrueValue = "true"
)

// Credentials 登录凭据。
// EC 与 UAAP 网关可能使用独立口令，因此有两个口令槽位。
type Credentials struct {
	// UserID 学号/工号。
	UserID string

	// PrimaryPassword EC 网关口令。
	PrimaryPassword string

	// SecondaryPassword UAAP 网关口令。
	SecondaryPassword string
}

// Equal 三字段结构相等。
func (c Credentials) Equal(other Credentials) bool {
	return c == other
}

// IsZero 判断凭据是否为空。
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// CredentialKeeper 在 Store 之上管理会话态与记住态两套凭据。
type CredentialKeeper struct {
	store     Store
	namespace string
}

// NewCredentialKeeper 创建凭据管理器。
// namespace 用于多账户部署隔离，单机客户端留空即可。
func NewCredentialKeeper(store Store, namespace string) (*CredentialKeeper, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return &CredentialKeeper{store: store, namespace: namespace}, nil
}

func (k *CredentialKeeper) key(name string) string {
	return Namespaced(k.namespace, name)
}

// SaveSession 写入会话态凭据（登录成功时调用）。
func (k *CredentialKeeper) SaveSession(ctx context.Context, creds Credentials) error {
	pairs := map[string]string{
		KeyUserID:     creds.UserID,
		KeyECPassword: creds.PrimaryPassword,
		KeyPassword:   creds.SecondaryPassword,
	}
	for name, value := range pairs {
		if err := k.store.Set(ctx, k.key(name), value); err != nil {
			return fmt.Errorf("xvault: save session credential %s: %w", name, err)
		}
	}
	return nil
}

// LoadSession 读取会话态凭据（进程重启时用于静默重登）。
// 任一键缺失返回 ErrNotFound。
func (k *CredentialKeeper) LoadSession(ctx context.Context) (Credentials, error) {
	return k.load(ctx, KeyUserID, KeyECPassword, KeyPassword)
}

// ClearSession 清除会话态凭据（登出时调用）。记住态不受影响。
func (k *CredentialKeeper) ClearSession(ctx context.Context) error {
	for _, name := range []string{KeyUserID, KeyECPassword, KeyPassword} {
		if err := k.store.Delete(ctx, k.key(name)); err != nil {
			return fmt.Errorf("xvault: clear session credential %s: %w", name, err)
		}
	}
	return nil
}

// SaveRemembered 写入记住态凭据并置位启用标记。
// 仅在用户显式勾选"记住密码"时调用。
func (k *CredentialKeeper) SaveRemembered(ctx context.Context, creds Credentials) error {
	pairs := map[string]string{
		KeyRememberedUserID:     creds.UserID,
		KeyRememberedECPassword: creds.PrimaryPassword,
		KeyRememberedPassword:   creds.SecondaryPassword,
		KeyRememberPasswordFlag: rememberEnabledTrueValue,
	}
	for name, value := range pairs {
		if err := k.store.Set(ctx, k.key(name), value); err != nil {
			return fmt.Errorf("xvault: save remembered credential %s: %w", name, err)
		}
	}
	return nil
}

// LoadRemembered 读取记住态凭据。
// 启用标记未置位时返回 ErrNotFound。
func (k *CredentialKeeper) LoadRemembered(ctx context.Context) (Credentials, error) {
	enabled, err := k.IsRememberEnabled(ctx)
	if err != nil {
		return Credentials{}, err
	}
	if !enabled {
		return Credentials{}, ErrNotFound
	}
	return k.load(ctx, KeyRememberedUserID, KeyRememberedECPassword, KeyRememberedPassword)
}

// IsRememberEnabled 判断"记住密码"是否已显式开启。
// 标记从未写入时为 false。
func (k *CredentialKeeper) IsRememberEnabled(ctx context.Context) (bool, error) {
	v, err := k.store.Get(ctx, k.key(KeyRememberPasswordFlag))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == rememberEnabledTrueValue, nil
}

// ClearRemembered 清除记住态凭据与启用标记。
func (k *CredentialKeeper) ClearRemembered(ctx context.Context) error {
	names := []string{
		KeyRememberedUserID, KeyRememberedECPassword,
		KeyRememberedPassword, KeyRememberPasswordFlag,
	}
	for _, name := range names {
		if err := k.store.Delete(ctx, k.key(name)); err != nil {
			return fmt.Errorf("xvault: clear remembered credential %s: %w", name, err)
		}
	}
	return nil
}

func (k *CredentialKeeper) load(ctx context.Context, userKey, primaryKey, secondaryKey string) (Credentials, error) {
	userID, err := k.store.Get(ctx, k.key(userKey))
	if err != nil {
		return Credentials{}, err
	}
	primary, err := k.store.Get(ctx, k.key(primaryKey))
	if err != nil {
		return Credentials{}, err
	}
	secondary, err := k.store.Get(ctx, k.key(secondaryKey))
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		UserID:            userID,
		PrimaryPassword:   primary,
		SecondaryPassword: secondary,
	}, nil
}
