package xsession

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/sibuxiangx/acekit/pkg/storage/xvault"
)

// Conn 会话连接：共享 HTTP 客户端与 Cookie Jar 的唯一持有者。
//
// 每次登录尝试创建一个 Conn，由顶层应用会话持有；
// 登出或会话致命失效时销毁。子系统客户端通过 HTTPClient()
// 借用已认证客户端发起调用。
type Conn struct {
	cfg    *Config
	client *http.Client
	logger *slog.Logger
	id     string

	// mu 保护 Cookie Jar 与认证状态：登录与探活不可交错
	mu sync.Mutex
	// sf 合并并发登录：第二个并发调用等待第一个的结果
	sf     singleflight.Group
	closed atomic.Bool

	userID        string
	sessionCookie string
	ecAuthed      bool
	uaapAuthed    bool
}

// ConnOption 连接配置选项。
type ConnOption func(*Conn)

// WithLogger 设置日志器。nil 使用 slog.Default()。
func WithLogger(l *slog.Logger) ConnOption {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient 注入自定义 HTTP 客户端（测试用）。
// 客户端缺少 Cookie Jar 时会自动补上。
func WithHTTPClient(client *http.Client) ConnOption {
	return func(c *Conn) {
		if client != nil {
			c.client = client
		}
	}
}

// NewConn 创建会话连接。
func NewConn(cfg *Config, opts ...ConnOption) (*Conn, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("xsession: invalid config: %w", err)
	}

	c := &Conn{
		cfg: cfg,
		id:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(slog.String("conn_id", c.id))

	if c.client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("xsession: create cookie jar: %w", err)
		}
		c.client = &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		}
	} else if c.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("xsession: create cookie jar: %w", err)
		}
		c.client.Jar = jar
	}
	return c, nil
}

// ID 返回连接标识（日志关联用）。
func (c *Conn) ID() string {
	return c.id
}

// UserID 返回已认证的用户 ID；未登录为空串。
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// SessionCookie 返回会话 Cookie 值；未登录为空串。
func (c *Conn) SessionCookie() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionCookie
}

// HTTPClient 返回共享的已认证客户端，供子系统客户端借用。
// 仅使用客户端的调用可以完全并发，无需连接锁。
func (c *Conn) HTTPClient() *http.Client {
	return c.client
}

// LoginEC 执行 EC 网关登录。
//
// 幂等：已认证时直接返回缓存的成功结果，不重复提交。
// 并发的登录调用经 singleflight 合并为一次协议交互。
// 流程内部不重试（登录有验证码触发等副作用，不允许盲目重放）。
func (c *Conn) LoginEC(ctx context.Context, creds xvault.Credentials) ECOutcome {
	if c.closed.Load() {
		c.logger.Warn("login on closed connection")
		return ECUnknownError
	}
	if creds.UserID == "" || creds.PrimaryPassword == "" {
		return ECInvalidCredentials
	}

	v, _, _ := c.sf.Do("login_ec", func() (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.ecAuthed {
			return ECSuccess, nil
		}
		outcome := c.loginECLocked(ctx, creds)
		if outcome.IsSuccess() {
			c.userID = creds.UserID
			c.sessionCookie = c.cookieValue(c.cfg.ECBaseURL, c.cfg.SessionCookieName)
			c.ecAuthed = true
		}
		return outcome, nil
	})
	outcome, ok := v.(ECOutcome)
	if !ok {
		return ECUnknownError
	}
	return outcome
}

// LoginUAAP 执行 UAAP/CAS 网关登录。
// 惰性调用：首次访问 VPN 反代下的子系统时才需要。幂等语义同 LoginEC。
func (c *Conn) LoginUAAP(ctx context.Context, creds xvault.Credentials) UAAPOutcome {
	if c.closed.Load() {
		c.logger.Warn("uaap login on closed connection")
		return UAAPUnknownError
	}
	if c.cfg.UAAPBaseURL == "" {
		c.logger.Error("uaap login requested but no uaap base url configured")
		return UAAPUnknownError
	}
	if creds.UserID == "" {
		return UAAPInvalidCredentials
	}

	v, _, _ := c.sf.Do("login_uaap", func() (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.uaapAuthed {
			return UAAPSuccess, nil
		}
		outcome := c.loginUAAPLocked(ctx, creds)
		if outcome.IsSuccess() {
			// CAS 会话 Cookie 已随响应并入共享 Jar
			c.uaapAuthed = true
		}
		return outcome, nil
	})
	outcome, ok := v.(UAAPOutcome)
	if !ok {
		return UAAPUnknownError
	}
	return outcome
}

// ProbeSession 发起一次轻量已认证 GET，判断网关是否仍认可会话。
// 与登录共用连接锁，避免在 Jar 变更中途探测。
func (c *Conn) ProbeSession(ctx context.Context) SessionCheckOutcome {
	if c.closed.Load() {
		return SessionCheckOutcome{Kind: CheckResolved, LoggedIn: false}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	probeURL := strings.TrimSuffix(c.cfg.ECBaseURL, "/") + c.cfg.ECProbePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return SessionCheckOutcome{Kind: CheckUnknownError}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		// 网络错误：未知，假定仍有效（见包文档的探活策略）
		c.logger.Debug("session probe network error, assuming still valid",
			slog.String("error", err.Error()))
		return SessionCheckOutcome{Kind: CheckNetworkError}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return SessionCheckOutcome{Kind: CheckResolved, LoggedIn: false}
	case landedOnLoginPage(resp, c.cfg.ECLoginPath):
		// 网关把未认证请求重定向回登录页
		return SessionCheckOutcome{Kind: CheckResolved, LoggedIn: false}
	case resp.StatusCode == http.StatusOK:
		return SessionCheckOutcome{Kind: CheckResolved, LoggedIn: true}
	default:
		return SessionCheckOutcome{Kind: CheckUnknownError}
	}
}

// CheckSession 探活的布尔形态：网络错误按"假定仍有效"折算。
// 返回 false 只向上报告失效，既不清除凭据也不自动重登。
func (c *Conn) CheckSession(ctx context.Context) bool {
	return c.ProbeSession(ctx).StillValid()
}

// Close 关闭连接。后续登录与探活返回失败结果。
func (c *Conn) Close() {
	c.closed.Store(true)
}

// cookieValue 在持有锁的前提下读取 Jar 中指定名称的 Cookie 值。
// 名称未命中时退回第一个 Cookie（网关可能改名）。
func (c *Conn) cookieValue(baseURL, name string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	cookies := c.client.Jar.Cookies(u)
	for _, ck := range cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	if len(cookies) > 0 {
		return cookies[0].Value
	}
	return ""
}

// landedOnLoginPage 判断（跟随重定向后的）最终页面是否为登录页。
func landedOnLoginPage(resp *http.Response, loginPath string) bool {
	if resp.Request == nil || resp.Request.URL == nil {
		return false
	}
	return strings.HasPrefix(resp.Request.URL.Path, loginPath)
}
