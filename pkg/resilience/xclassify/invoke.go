package xclassify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/sibuxiangx/acekit/pkg/resilience/xretry"
)

// Caller 组合重试、熔断与分类，是子系统客户端发起调用的统一入口。
//
// 重试策略是调用点参数：幂等读取用默认 FixedRetry(3)，
// 带副作用的提交必须传入 NeverRetry 的 Retryer。
type Caller struct {
	retryer *xretry.Retryer
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// CallerOption Caller 配置选项。
type CallerOption func(*Caller)

// WithRetryer 设置重试执行器。
func WithRetryer(r *xretry.Retryer) CallerOption {
	return func(c *Caller) {
		if r != nil {
			c.retryer = r
		}
	}
}

// WithBreaker 启用熔断器。
// name 用于日志与状态上报；连续失败 5 次熔断，60s 后半开。
func WithBreaker(name string) CallerOption {
	return func(c *Caller) {
		c.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
}

// WithLogger 设置日志器。nil 使用 slog.Default()。
func WithLogger(l *slog.Logger) CallerOption {
	return func(c *Caller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCaller 创建调用包装器。
// 默认：FixedRetry(3) + 指数退避，无熔断。
func NewCaller(opts ...CallerOption) *Caller {
	c := &Caller{
		retryer: xretry.NewRetryer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Invoke 执行一次受保护的调用并封装为 Result。
//
// 失败路径：重试按 Caller 的策略进行；耗尽后（或熔断开启时）
// 错误经 Classify 归类进 Result.Fail。message 为操作的人类可读名称，
// 成功与失败信封共用。
func Invoke[T any](ctx context.Context, c *Caller, message string, fn func(ctx context.Context) (T, error)) Result[T] {
	if c == nil {
		c = NewCaller()
	}

	wrapped := fn
	if c.breaker != nil {
		wrapped = func(ctx context.Context) (T, error) {
			out, err := c.breaker.Execute(func() (any, error) {
				return fn(ctx)
			})
			if err != nil {
				var zero T
				return zero, err
			}
			v, _ := out.(T)
			return v, nil
		}
	}

	data, err := xretry.DoWithResult(ctx, c.retryer, wrapped)
	if err != nil {
		retryable, _ := Classify(err)
		c.logger.Warn("call failed",
			slog.String("op", message),
			slog.Bool("retryable", retryable),
			slog.String("error", err.Error()))
		return Fail[T](err, message)
	}
	return OK(data, message)
}

// BreakerOpen 判断错误是否为熔断开启导致的快速失败。
func BreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
