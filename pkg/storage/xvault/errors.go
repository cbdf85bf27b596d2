package xvault

import "errors"

var (
	// ErrNotFound 表示键不存在。
	ErrNotFound = errors.New("xvault: key not found")

	// ErrNilStore 表示传入的存储为 nil。
	ErrNilStore = errors.New("xvault: nil store")

	// ErrNilClient 表示传入的 Redis 客户端为 nil。
	ErrNilClient = errors.New("xvault: nil redis client")

	// ErrEmptyKey 表示键为空。
	ErrEmptyKey = errors.New("xvault: empty key")

	// ErrEmptyPassphrase 表示文件存储的加密口令为空。
	ErrEmptyPassphrase = errors.New("xvault: empty passphrase")
)
