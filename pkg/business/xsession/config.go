package xsession

import (
	"fmt"
	"net/url"
	"time"
)

// 默认值。
const (
	// DefaultTimeout 单次 HTTP 请求超时（按请求生效，而非按重试包裹的操作）。
	DefaultTimeout = 15 * time.Second

	// DefaultMonitorInterval 会话探活周期。
	DefaultMonitorInterval = 5 * time.Minute

	// DefaultSessionCookieName 会话 Cookie 名。
	DefaultSessionCookieName = "JSESSIONID"
)

// 默认网关路径。站点改版漂移时通过 Config 覆盖。
const (
	DefaultECKeyPath     = "/authserver/getPublicKey"
	DefaultECLoginPath   = "/authserver/login"
	DefaultECProbePath   = "/authserver/index"
	DefaultUAAPLoginPath = "/cas/login"
)

// 默认响应标记。正文命中即归类为对应失败。
const (
	DefaultInvalidCredentialMarker = "用户名或密码错误"
	DefaultChallengeMarker         = "验证码"
)

// Config 定义会话层配置。
// 端点、标记与 Cookie 名都是站点相关约定，不在代码里写死。
type Config struct {
	// ECBaseURL EC 网关地址（必填），例如 https://ec.example.edu.cn。
	ECBaseURL string

	// ECKeyPath RSA 公钥文档路径，返回 {"modulus": hex, "exponent": hex}。
	ECKeyPath string

	// ECLoginPath 登录页/登录提交路径（CSRF token 嵌在该页面中）。
	ECLoginPath string

	// ECProbePath 探活路径：已认证 GET 一次判断会话是否仍被认可。
	ECProbePath string

	// UAAPBaseURL UAAP/CAS 网关地址（可选；VPN 反代场景填反代入口）。
	UAAPBaseURL string

	// UAAPLoginPath CAS 登录路径。
	UAAPLoginPath string

	// SessionCookieName 会话 Cookie 名。
	SessionCookieName string

	// InvalidCredentialMarker 响应正文中标识口令错误的特征串。
	InvalidCredentialMarker string

	// ChallengeMarker 响应正文中标识验证码/人机校验的特征串。
	ChallengeMarker string

	// Timeout 单次 HTTP 请求超时。
	Timeout time.Duration

	// MonitorInterval 会话探活周期。
	MonitorInterval time.Duration
}

// ApplyDefaults 为未设置的字段填入默认值。
func (c *Config) ApplyDefaults() {
	if c.ECKeyPath == "" {
		c.ECKeyPath = DefaultECKeyPath
	}
	if c.ECLoginPath == "" {
		c.ECLoginPath = DefaultECLoginPath
	}
	if c.ECProbePath == "" {
		c.ECProbePath = DefaultECProbePath
	}
	if c.UAAPLoginPath == "" {
		c.UAAPLoginPath = DefaultUAAPLoginPath
	}
	if c.SessionCookieName == "" {
		c.SessionCookieName = DefaultSessionCookieName
	}
	if c.InvalidCredentialMarker == "" {
		c.InvalidCredentialMarker = DefaultInvalidCredentialMarker
	}
	if c.ChallengeMarker == "" {
		c.ChallengeMarker = DefaultChallengeMarker
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = DefaultMonitorInterval
	}
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if c.ECBaseURL == "" {
		return ErrMissingECBaseURL
	}
	if err := validateBaseURL(c.ECBaseURL); err != nil {
		return err
	}
	if c.UAAPBaseURL != "" {
		if err := validateBaseURL(c.UAAPBaseURL); err != nil {
			return err
		}
	}
	return nil
}

// Clone 返回配置的浅拷贝，避免外部修改。
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return nil
}
