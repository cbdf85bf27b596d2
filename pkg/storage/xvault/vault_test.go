package xvault

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories 让同一套行为测试覆盖所有 Store 实现。
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"Memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"File": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "vault.age"), "test-passphrase")
			require.NoError(t, err)
			return s
		},
		"Redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			s, err := NewRedisStore(client)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_Behavior(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("SetGetDelete", func(t *testing.T) {
				s := factory(t)

				require.NoError(t, s.Set(ctx, "alpha", "1"))
				v, err := s.Get(ctx, "alpha")
				require.NoError(t, err)
				assert.Equal(t, "1", v)

				ok, err := s.Has(ctx, "alpha")
				require.NoError(t, err)
				assert.True(t, ok)

				require.NoError(t, s.Delete(ctx, "alpha"))
				_, err = s.Get(ctx, "alpha")
				assert.ErrorIs(t, err, ErrNotFound)

				ok, err = s.Has(ctx, "alpha")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("DeleteMissingKeyIsNoop", func(t *testing.T) {
				s := factory(t)
				assert.NoError(t, s.Delete(ctx, "ghost"))
			})

			t.Run("ClearPrefix", func(t *testing.T) {
				s := factory(t)
				require.NoError(t, s.Set(ctx, "aac_ticket_u1", "t1"))
				require.NoError(t, s.Set(ctx, "aac_ticket_u2", "t2"))
				require.NoError(t, s.Set(ctx, "user_id", "u1"))

				n, err := s.ClearPrefix(ctx, "aac_ticket_")
				require.NoError(t, err)
				assert.Equal(t, 2, n)

				_, err = s.Get(ctx, "aac_ticket_u1")
				assert.ErrorIs(t, err, ErrNotFound)
				v, err := s.Get(ctx, "user_id")
				require.NoError(t, err)
				assert.Equal(t, "u1", v)
			})

			t.Run("EmptyKeyRejected", func(t *testing.T) {
				s := factory(t)
				assert.ErrorIs(t, s.Set(ctx, "", "x"), ErrEmptyKey)
				_, err := s.Get(ctx, "")
				assert.ErrorIs(t, err, ErrEmptyKey)
			})
		})
	}
}

func TestFileStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.age")

	s, err := NewFileStore(path, "correct horse")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "user_id", "2021114514"))

	// 重新打开：数据应从密文文件恢复
	reopened, err := NewFileStore(path, "correct horse")
	require.NoError(t, err)
	v, err := reopened.Get(ctx, "user_id")
	require.NoError(t, err)
	assert.Equal(t, "2021114514", v)

	// 口令错误应拒绝打开
	_, err = NewFileStore(path, "wrong passphrase")
	assert.Error(t, err)
}

func TestFileStore_EmptyPassphrase(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "vault.age"), "")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestNamespaced(t *testing.T) {
	assert.Equal(t, "u1:user_id", Namespaced("u1", "user_id"))
	assert.Equal(t, "user_id", Namespaced("", "user_id"))
}
