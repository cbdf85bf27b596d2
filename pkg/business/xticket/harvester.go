package xticket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	// DefaultMaxHops 重定向链跳数上限。
	DefaultMaxHops = 10
)

// defaultLandingPattern 默认落地页 path 特征。
// AAC 的 ticket 落地在 /register；其它服务通过 WithLandingPattern 覆盖。
var defaultLandingPattern = regexp.MustCompile(`(?:^|/)register$`)

// Harvester 重定向链 ticket 采收器。
type Harvester struct {
	client         *http.Client
	maxHops        int
	landingPattern *regexp.Regexp
	logger         *slog.Logger
}

// HarvesterOption Harvester 配置选项。
type HarvesterOption func(*Harvester)

// WithMaxHops 设置跳数上限（<=0 时保持默认值 10）。
func WithMaxHops(n int) HarvesterOption {
	return func(h *Harvester) {
		if n > 0 {
			h.maxHops = n
		}
	}
}

// WithLandingPattern 设置落地页 path 的匹配模式。
func WithLandingPattern(p *regexp.Regexp) HarvesterOption {
	return func(h *Harvester) {
		if p != nil {
			h.landingPattern = p
		}
	}
}

// WithLogger 设置日志器。
func WithLogger(l *slog.Logger) HarvesterOption {
	return func(h *Harvester) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHarvester 创建采收器。
//
// client 应为会话层暴露的已认证客户端（携带 Cookie Jar）；
// 采收器内部以禁用自动重定向的副本工作，不影响传入的客户端。
func NewHarvester(client *http.Client, opts ...HarvesterOption) (*Harvester, error) {
	if client == nil {
		return nil, ErrNilHTTPClient
	}

	// 浅拷贝并禁用自动重定向：逐跳检查 Location 是算法本体
	manual := *client
	manual.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	h := &Harvester{
		client:         &manual,
		maxHops:        DefaultMaxHops,
		landingPattern: defaultLandingPattern,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

// Harvest 从 loginServiceURL 出发采收 ticket。
// 采收失败返回空串与错误；协议阶段失败不在本层重试。
func (h *Harvester) Harvest(ctx context.Context, loginServiceURL string) (string, error) {
	current, err := url.Parse(loginServiceURL)
	if err != nil {
		return "", fmt.Errorf("xticket: parse login service url: %w", err)
	}

	for hop := 0; hop < h.maxHops; hop++ {
		// 先检查当前 URL 是否已是落地页（重定向链可能直达）
		if ticket, ok := h.extract(current); ok {
			h.logger.Debug("ticket harvested",
				slog.String("landing", current.Path),
				slog.Int("hops", hop))
			return ticket, nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return "", fmt.Errorf("xticket: build request: %w", err)
		}
		resp, err := h.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("xticket: hop %d: %w", hop+1, err)
		}
		resp.Body.Close()

		if !isRedirect(resp.StatusCode) {
			// 非重定向且非落地页：链到此为止，无 ticket 可采
			return "", fmt.Errorf("%w: terminated at %s with status %d",
				ErrNoTicket, current.Path, resp.StatusCode)
		}

		location := resp.Header.Get("Location")
		if location == "" {
			return "", fmt.Errorf("%w: hop %d (%s)", ErrMissingLocation, hop+1, current.Path)
		}
		next, err := url.Parse(location)
		if err != nil {
			return "", fmt.Errorf("xticket: parse location %q: %w", location, err)
		}
		current = current.ResolveReference(next)
	}

	return "", fmt.Errorf("%w: gave up after %d hops", ErrTooManyRedirects, h.maxHops)
}

// extract 判断 u 是否为落地页，并从其 query/fragment 摘出 ticket。
func (h *Harvester) extract(u *url.URL) (string, bool) {
	if !h.landingPattern.MatchString(u.Path) {
		return "", false
	}
	// 在原始 query+fragment 上手工定位 ticket=，截到下一个 & 或 #，
	// 再做百分号解码。不用 url.Query()：某些网关会把 ticket 放进
	// fragment，且值中可能含未编码的保留字符。
	raw := u.RawQuery
	if u.Fragment != "" {
		raw += "#" + u.EscapedFragment()
	}
	idx := strings.Index(raw, "ticket=")
	if idx < 0 {
		return "", false
	}
	value := raw[idx+len("ticket="):]
	if end := strings.IndexAny(value, "&#"); end >= 0 {
		value = value[:end]
	}
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		// 解码失败时退回原始值：ticket 本就是不透明字符串
		return value, true
	}
	return decoded, true
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
