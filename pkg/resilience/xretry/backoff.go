package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// FixedBackoff 固定延迟退避策略。
type FixedBackoff struct {
	delay time.Duration
}

// NewFixedBackoff 创建固定延迟退避策略。
func NewFixedBackoff(delay time.Duration) *FixedBackoff {
	if delay < 0 {
		delay = 0
	}
	return &FixedBackoff{delay: delay}
}

func (b *FixedBackoff) NextDelay(_ int) time.Duration {
	return b.delay
}

// ExponentialBackoff 指数退避策略。
// delay = min(initialDelay * multiplier^(attempt-1) * (1 + rand(-1,1) * jitter), maxDelay)
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       float64
}

// ExponentialBackoffOption 指数退避配置选项。
type ExponentialBackoffOption func(*ExponentialBackoff)

// WithInitialDelay 设置初始延迟。
// d <= 0 时静默忽略（保持默认值）。
func WithInitialDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.initialDelay = d
		}
	}
}

// WithMaxDelay 设置最大延迟。
func WithMaxDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithMultiplier 设置乘数因子（>= 1.0）。
// 小于 1.0 的值会被忽略（保持默认值 2.0）。
func WithMultiplier(m float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if m >= 1 {
			b.multiplier = m
		}
	}
}

// WithJitter 设置抖动因子（0-1 之间，clamp 到有效区间）。
func WithJitter(j float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if j < 0 {
			j = 0
		} else if j > 1 {
			j = 1
		}
		b.jitter = j
	}
}

// NewExponentialBackoff 创建指数退避策略。
// 默认值：
//   - initialDelay: 1s
//   - maxDelay: 30s
//   - multiplier: 2.0
//   - jitter: 0（确定性退避，1s、2s、4s …）
func NewExponentialBackoff(opts ...ExponentialBackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitter:       0,
	}
	for _, opt := range opts {
		opt(b)
	}
	// 确保 maxDelay >= initialDelay
	if b.maxDelay < b.initialDelay {
		b.maxDelay = b.initialDelay
	}
	return b
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt-1))

	if b.jitter > 0 {
		jitterFactor := 1.0 + (randomFloat64()*2-1)*b.jitter
		delay *= jitterFactor
	}

	// attempt 极大时 math.Pow 溢出为 +Inf，与抖动相乘可能产生 NaN；
	// NaN 的所有比较均为 false，会绕过 maxDelay 限制，因此单独兜底。
	if math.IsNaN(delay) || delay < 0 {
		return b.maxDelay
	}
	if delay >= float64(b.maxDelay) {
		return b.maxDelay
	}

	return time.Duration(delay)
}

// NoBackoff 无延迟退避策略。
type NoBackoff struct{}

// NewNoBackoff 创建无延迟退避策略。
func NewNoBackoff() *NoBackoff {
	return &NoBackoff{}
}

func (b *NoBackoff) NextDelay(_ int) time.Duration {
	return 0
}

// 确保实现了接口
var (
	_ BackoffPolicy = (*FixedBackoff)(nil)
	_ BackoffPolicy = (*ExponentialBackoff)(nil)
	_ BackoffPolicy = (*NoBackoff)(nil)
)

const (
	floatBits  = 53
	floatScale = 1.0 / (1 << floatBits)
)

func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand 失败时返回 0，即无抖动（安全默认值）
		return 0
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}
