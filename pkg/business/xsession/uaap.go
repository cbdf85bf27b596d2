package xsession

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/sibuxiangx/acekit/pkg/storage/xvault"
)

// CAS 登录页隐藏域。lt 是一次性登录票据，execution 是流程状态。
var (
	ltPattern        = regexp.MustCompile(`name="lt"[^>]*value="([^"]*)"`)
	executionPattern = regexp.MustCompile(`name="execution"[^>]*value="([^"]*)"`)
)

// loginUAAPLocked 执行 UAAP/CAS 登录协议。调用方必须持有连接锁。
//
// 比 EC 少两个阶段：登录页隐藏域提取 → 提交 → 归类。
// 成功后 CAS 会话 Cookie 经共享 Jar 自动并入连接。
func (c *Conn) loginUAAPLocked(ctx context.Context, creds xvault.Credentials) UAAPOutcome {
	base := strings.TrimSuffix(c.cfg.UAAPBaseURL, "/")
	loginURL := base + c.cfg.UAAPLoginPath

	// 阶段 1：登录页的 lt / execution 隐藏域
	resp, err := c.get(ctx, loginURL)
	if err != nil {
		return UAAPNetworkError
	}
	body, err := readBody(resp)
	if err != nil {
		return UAAPNetworkError
	}

	ltMatch := ltPattern.FindSubmatch(body)
	if ltMatch == nil || len(ltMatch[1]) == 0 {
		c.logger.Warn("uaap login page carries no lt token")
		return UAAPNoLoginToken
	}
	execMatch := executionPattern.FindSubmatch(body)
	if execMatch == nil || len(execMatch[1]) == 0 {
		c.logger.Warn("uaap login page carries no execution token")
		return UAAPNoExecutionToken
	}

	// 阶段 2：提交凭据与两个 token
	password := creds.SecondaryPassword
	if password == "" {
		// UAAP 独立口令未设置时退回 EC 口令（两网关可能同口令）
		password = creds.PrimaryPassword
	}
	form := url.Values{
		"username":  {creds.UserID},
		"password":  {password},
		"lt":        {string(ltMatch[1])},
		"execution": {string(execMatch[1])},
		"_eventId":  {"submit"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return UAAPUnknownError
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	postResp, err := c.client.Do(req)
	if err != nil {
		return UAAPNetworkError
	}
	postBody, err := readBody(postResp)
	if err != nil {
		return UAAPNetworkError
	}

	text := string(postBody)
	switch {
	case strings.Contains(text, c.cfg.InvalidCredentialMarker):
		return UAAPInvalidCredentials
	case !landedOnLoginPage(postResp, c.cfg.UAAPLoginPath) && postResp.StatusCode == http.StatusOK:
		c.logger.Info("uaap login succeeded", slog.String("user_id", creds.UserID))
		return UAAPSuccess
	default:
		c.logger.Warn("uaap login response not classified",
			slog.Int("status", postResp.StatusCode),
			slog.String("final_path", finalPath(postResp)))
		return UAAPUnknownError
	}
}
