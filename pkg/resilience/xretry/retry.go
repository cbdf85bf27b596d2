package xretry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// RetryPolicy 定义重试策略接口。
//
// 通过 Retryer 使用时：
//   - MaxAttempts() 设置 retry-go 的 Attempts 上限
//   - ShouldRetry() 在每次失败后被调用，可实现自定义的重试判断逻辑
type RetryPolicy interface {
	// MaxAttempts 返回最大尝试次数（包含首次尝试），最小为 1。
	MaxAttempts() int

	// ShouldRetry 判断是否应该重试。
	//
	// ctx: 上下文，可用于取消
	// attempt: 当前已失败次数（从 1 开始）
	// err: 上次执行的错误
	ShouldRetry(ctx context.Context, attempt int, err error) bool
}

// BackoffPolicy 定义退避策略接口。
type BackoffPolicy interface {
	// NextDelay 返回第 attempt 次失败后的等待时间（attempt 从 1 开始）。
	NextDelay(attempt int) time.Duration
}

// Executor 重试执行器接口。
// 调用方如需 mock 重试执行器，可使用此接口作为参数类型。
type Executor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// 镜像 retry-go 的部分 API 表面，业务代码无需直接 import 第三方包。
type (
	// Option 是 retry-go 的配置选项类型。
	Option = retry.Option
)

var (
	// Unrecoverable 将错误标记为不可恢复（retry-go 风格）。
	Unrecoverable = retry.Unrecoverable

	// IsRecoverable 判断错误是否可恢复。
	IsRecoverable = retry.IsRecoverable
)
