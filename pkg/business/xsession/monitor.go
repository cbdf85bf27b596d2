package xsession

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionChecker 会话探活能力。*Conn 即实现。
type SessionChecker interface {
	CheckSession(ctx context.Context) bool
}

// MonitorState 监视器状态。
type MonitorState int

const (
	// MonitorIdle 空闲（未启动或已停止）。
	MonitorIdle MonitorState = iota

	// MonitorRunning 周期探活中。
	MonitorRunning

	// MonitorDisposed 已释放，不可再启动。
	MonitorDisposed
)

func (s MonitorState) String() string {
	switch s {
	case MonitorIdle:
		return "idle"
	case MonitorRunning:
		return "running"
	default:
		return "disposed"
	}
}

// Monitor 会话监视器：按固定周期探活，发现会话失效时自动停止
// 并回调通知。失效只报告一次；既不自动重登也不清除凭据，
// 后续动作由回调方决定。
//
// 所有方法并发安全。重复 Start 会先撤销旧的排程再建新排程，
// 任意时刻至多一个探活排程在跑。
type Monitor struct {
	checker  SessionChecker
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	// onExpired 会话失效时回调（在探活协程中调用，自停之后）
	onExpired func()

	mu    sync.Mutex
	cron  *cron.Cron
	state MonitorState
}

// MonitorOption 监视器配置选项。
type MonitorOption func(*Monitor)

// WithMonitorInterval 设置探活周期。非正值使用 DefaultMonitorInterval。
func WithMonitorInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithMonitorTimeout 设置单次探活超时。非正值使用 DefaultTimeout。
func WithMonitorTimeout(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithOnExpired 设置会话失效回调。
func WithOnExpired(fn func()) MonitorOption {
	return func(m *Monitor) {
		m.onExpired = fn
	}
}

// WithMonitorLogger 设置日志器。nil 使用 slog.Default()。
func WithMonitorLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMonitor 创建会话监视器。创建后处于空闲态，需显式 Start。
func NewMonitor(checker SessionChecker, opts ...MonitorOption) (*Monitor, error) {
	if checker == nil {
		return nil, fmt.Errorf("xsession: nil session checker")
	}
	m := &Monitor{
		checker:  checker,
		interval: DefaultMonitorInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// State 返回当前状态。
func (m *Monitor) State() MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start 启动周期探活。已在运行时先撤销旧排程再建新排程，
// 保证不会出现两个并存的探活周期。已释放时返回 ErrMonitorDisposed。
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorDisposed {
		return ErrMonitorDisposed
	}
	m.stopLocked()

	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)))
	spec := fmt.Sprintf("@every %s", m.interval)
	if _, err := c.AddFunc(spec, m.tick); err != nil {
		return fmt.Errorf("xsession: schedule session check: %w", err)
	}
	c.Start()

	m.cron = c
	m.state = MonitorRunning
	m.logger.Info("session monitor started", slog.Duration("interval", m.interval))
	return nil
}

// Stop 停止探活。空闲或已释放时为无害空操作。
// 不等待在途的那次探活结束，只保证不再有新的探活发起。
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MonitorRunning {
		return
	}
	m.stopLocked()
	m.state = MonitorIdle
	m.logger.Info("session monitor stopped")
}

// Dispose 释放监视器。幂等；释放后 Start 返回 ErrMonitorDisposed。
func (m *Monitor) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorDisposed {
		return
	}
	m.stopLocked()
	m.state = MonitorDisposed
}

// stopLocked 撤销当前排程。调用方必须持有 m.mu。
// 不在持锁状态下等待在途任务：探活任务自身也会取锁，等待会互锁。
func (m *Monitor) stopLocked() {
	if m.cron == nil {
		return
	}
	m.cron.Stop()
	m.cron = nil
}

// tick 执行一次探活。会话失效时自停并回调。
func (m *Monitor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if m.checker.CheckSession(ctx) {
		m.logger.Debug("session check passed")
		return
	}

	m.logger.Warn("session no longer valid, monitor stopping")

	m.mu.Lock()
	if m.state == MonitorRunning {
		m.stopLocked()
		m.state = MonitorIdle
	}
	m.mu.Unlock()

	if m.onExpired != nil {
		m.onExpired()
	}
}

var _ SessionChecker = (*Conn)(nil)
