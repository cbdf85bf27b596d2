package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryer_Do(t *testing.T) {
	t.Run("SuccessOnFirstAttempt", func(t *testing.T) {
		r := NewRetryer()
		var attempts int

		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("SuccessAfterRetry", func(t *testing.T) {
		r := NewRetryer(
			WithRetryPolicy(NewFixedRetry(3)),
			WithBackoffPolicy(NewNoBackoff()),
		)
		var attempts int

		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("temporary error")
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("FailAfterMaxAttempts", func(t *testing.T) {
		r := NewRetryer(
			WithRetryPolicy(NewFixedRetry(3)),
			WithBackoffPolicy(NewNoBackoff()),
		)
		var attempts int
		wantErr := errors.New("persistent error")

		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return wantErr
		})

		// 耗尽后重新抛出最后一次错误
		require.Error(t, err)
		assert.ErrorIs(t, err, wantErr)
		assert.Equal(t, 3, attempts)
	})

	t.Run("PermanentErrorNoRetry", func(t *testing.T) {
		r := NewRetryer(
			WithRetryPolicy(NewFixedRetry(5)),
			WithBackoffPolicy(NewNoBackoff()),
		)
		var attempts int

		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return NewPermanentError(errors.New("permanent"))
		})

		assert.Error(t, err)
		assert.Equal(t, 1, attempts) // 只执行一次
	})

	t.Run("NeverRetryNeverSleeps", func(t *testing.T) {
		// MaxAttempts=1：无论 retryPredicate 如何，既不重试也不退避
		r := NewRetryer(
			WithRetryPolicy(NewNeverRetry()),
			WithBackoffPolicy(NewExponentialBackoff()),
		)
		var attempts int

		start := time.Now()
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return errors.New("boom")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("OnRetryCallback", func(t *testing.T) {
		var retries []int
		r := NewRetryer(
			WithRetryPolicy(NewFixedRetry(3)),
			WithBackoffPolicy(NewNoBackoff()),
			WithOnRetry(func(attempt int, err error) {
				retries = append(retries, attempt)
			}),
		)

		_ = r.Do(context.Background(), func(ctx context.Context) error {
			return errors.New("fail")
		})

		// 失败 3 次，重试回调触发 2 次（第 1、2 次失败后）
		assert.Equal(t, []int{1, 2}, retries)
	})

	t.Run("ContextCancelStopsRetry", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		r := NewRetryer(
			WithRetryPolicy(NewFixedRetry(10)),
			WithBackoffPolicy(NewFixedBackoff(50*time.Millisecond)),
		)
		var attempts int

		err := r.Do(ctx, func(ctx context.Context) error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errors.New("fail")
		})

		assert.Error(t, err)
		assert.LessOrEqual(t, attempts, 3)
	})

	t.Run("NilGuards", func(t *testing.T) {
		var nilRetryer *Retryer
		assert.ErrorIs(t, nilRetryer.Do(context.Background(), func(ctx context.Context) error { return nil }), ErrNilRetryer)

		r := NewRetryer()
		assert.ErrorIs(t, r.Do(nil, func(ctx context.Context) error { return nil }), ErrNilContext) //nolint:staticcheck // 测试 nil ctx 防御
		assert.ErrorIs(t, r.Do(context.Background(), nil), ErrNilFunc)
	})
}

func TestRetryer_BackoffTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test skipped in short mode")
	}

	// 默认指数退避：失败 3 次应等待约 1s + 2s
	r := NewRetryer(WithRetryPolicy(NewFixedRetry(3)))
	var attempts int

	start := time.Now()
	err := r.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("always fail")
	})
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
	// 容忍调度抖动
	assert.GreaterOrEqual(t, elapsed, 2900*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestDoWithResult(t *testing.T) {
	t.Run("ReturnsValue", func(t *testing.T) {
		r := NewRetryer(
			WithRetryPolicy(NewFixedRetry(3)),
			WithBackoffPolicy(NewNoBackoff()),
		)
		var attempts int

		got, err := DoWithResult(context.Background(), r, func(ctx context.Context) (string, error) {
			attempts++
			if attempts < 2 {
				return "", errors.New("not yet")
			}
			return "ticket", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ticket", got)
		assert.Equal(t, 2, attempts)
	})

	t.Run("NilRetryer", func(t *testing.T) {
		got, err := DoWithResult[int](context.Background(), nil, func(ctx context.Context) (int, error) {
			return 42, nil
		})
		assert.ErrorIs(t, err, ErrNilRetryer)
		assert.Zero(t, got)
	})
}
