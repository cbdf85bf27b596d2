package xretry

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// safeIntToUint 将 int 安全转换为 uint（负数归零）。
func safeIntToUint(n int) uint {
	if n <= 0 {
		return 0
	}
	return uint(n)
}

// safeUintToInt 将 uint 安全转换为 int（超限截断到 MaxInt）。
func safeUintToInt(n uint) int {
	if n > uint(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}

// 确保 *Retryer 实现 Executor 接口
var _ Executor = (*Retryer)(nil)

// Retryer 重试执行器。
//
// 组合 RetryPolicy（是否重试）和 BackoffPolicy（等多久），
// 失败重试耗尽后重新抛出最后一次错误。
type Retryer struct {
	retryPolicy   RetryPolicy
	backoffPolicy BackoffPolicy
	onRetry       func(attempt int, err error)
}

// RetryerOption 执行器配置选项。
type RetryerOption func(*Retryer)

// WithRetryPolicy 设置重试策略。
func WithRetryPolicy(p RetryPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.retryPolicy = p
		}
	}
}

// WithBackoffPolicy 设置退避策略。
func WithBackoffPolicy(p BackoffPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.backoffPolicy = p
		}
	}
}

// WithOnRetry 设置重试回调函数（attempt 从 1 开始）。
// 传入 nil 会被静默忽略。
func WithOnRetry(f func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 创建重试执行器。
// 默认使用 FixedRetry(3) 和 ExponentialBackoff（1s 起步、倍数 2.0）。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{
		retryPolicy:   NewFixedRetry(3),
		backoffPolicy: NewExponentialBackoff(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do 执行带重试的操作。
// 如果接收者为 nil，返回 ErrNilRetryer。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil {
		return ErrNilRetryer
	}
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	return retry.New(r.buildOptions(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 执行带重试的操作（有返回值）。
// 泛型函数，必须作为包级函数使用。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrNilRetryer
	}
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	return retry.NewWithData[T](r.buildOptions(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

// buildOptions 构建 retry-go 的选项。
// 每次 Do 调用重建选项切片；对重试场景（每秒最多几次）开销可忽略。
func (r *Retryer) buildOptions(ctx context.Context) []Option {
	opts := make([]Option, 0, 6)

	opts = append(opts, retry.Context(ctx))

	// 防止零值 Retryer 使用时 panic
	retryPolicy := r.retryPolicy
	if retryPolicy == nil {
		retryPolicy = NewFixedRetry(3)
	}
	backoffPolicy := r.backoffPolicy
	if backoffPolicy == nil {
		backoffPolicy = NewExponentialBackoff()
	}

	opts = append(opts, retry.Attempts(safeIntToUint(retryPolicy.MaxAttempts())))

	// Attempts 设置硬上限，RetryIf 中的 ShouldRetry 提供逐次判断。
	// attemptCount 表示"已失败次数"（1-based），与 RetryPolicy.ShouldRetry 语义一致。
	var attemptCount atomic.Int64
	opts = append(opts, retry.RetryIf(func(err error) bool {
		count := int(attemptCount.Add(1))
		if !IsRecoverable(err) {
			return false
		}
		return retryPolicy.ShouldRetry(ctx, count, err)
	}))

	// retry-go v5 中 DelayType 的 n 从 1 开始，与 BackoffPolicy.NextDelay 一致
	opts = append(opts, retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
		return backoffPolicy.NextDelay(safeUintToInt(n))
	}))

	if r.onRetry != nil {
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			// retry-go v5 中 OnRetry 的 n 从 0 开始，+1 转换为 1-based
			r.onRetry(safeUintToInt(n)+1, err)
		}))
	}

	// 只返回最后一个错误，简化调用方的错误处理
	opts = append(opts, retry.LastErrorOnly(true))

	return opts
}

// RetryPolicy 返回当前重试策略。nil 接收者返回 nil。
func (r *Retryer) RetryPolicy() RetryPolicy {
	if r == nil {
		return nil
	}
	return r.retryPolicy
}

// BackoffPolicy 返回当前退避策略。nil 接收者返回 nil。
func (r *Retryer) BackoffPolicy() BackoffPolicy {
	if r == nil {
		return nil
	}
	return r.backoffPolicy
}
