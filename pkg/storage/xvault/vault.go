package xvault

import (
	"context"
	"strings"
)

// Store 定义安全键值存储接口。
// 值是不透明字符串；键不存在时 Get 返回 ErrNotFound。
type Store interface {
	// Get 读取键值。
	Get(ctx context.Context, key string) (string, error)

	// Set 写入键值（覆盖旧值）。
	Set(ctx context.Context, key, value string) error

	// Delete 删除键（键不存在时不报错）。
	Delete(ctx context.Context, key string) error

	// Has 判断键是否存在。
	Has(ctx context.Context, key string) (bool, error)

	// ClearPrefix 删除所有带指定前缀的键，返回删除数量。
	ClearPrefix(ctx context.Context, prefix string) (int, error)
}

// Namespaced 拼接命名空间键："<namespace>:<key>"。
// namespace 为空时原样返回 key。
func Namespaced(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

// hasPrefix 供实现共用：空前缀匹配所有键。
func hasPrefix(key, prefix string) bool {
	return prefix == "" || strings.HasPrefix(key, prefix)
}
