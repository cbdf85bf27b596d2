package xsession

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/sibuxiangx/acekit/pkg/storage/xvault"
)

// maxBodySize 登录相关响应正文读取上限。
const maxBodySize = 1 << 20 // 1MB

// csrfTokenPattern 从登录页 HTML 中提取 CSRF token。
// 覆盖常见的几种字段命名；站点漂移时优先调整此处。
var csrfTokenPattern = regexp.MustCompile(
	`name="(?:csrftoken|csrf_token|_csrf|execution_csrf)"[^>]*value="([^"]*)"`)

// rsaKeyDocument EC 网关的公钥文档。模数与指数均为十六进制串。
type rsaKeyDocument struct {
	Modulus  string `json:"modulus"`
	Exponent string `json:"exponent"`
}

// loginECLocked 执行 EC 登录协议。调用方必须持有连接锁。
//
// 每个协议阶段的失败 1:1 映射到一个结果变体：
// 种子 Cookie → 公钥 → CSRF → 加密提交 → 响应归类。
func (c *Conn) loginECLocked(ctx context.Context, creds xvault.Credentials) ECOutcome {
	base := strings.TrimSuffix(c.cfg.ECBaseURL, "/")

	// 阶段 1：未认证 GET 网关根，取会话种子 Cookie
	if outcome := c.fetchSessionSeed(ctx, base); !outcome.IsSuccess() {
		return outcome
	}

	// 阶段 2：公钥文档
	keyDoc, outcome := c.fetchKeyDocument(ctx, base)
	if !outcome.IsSuccess() {
		return outcome
	}

	// 阶段 3：登录页中的 CSRF token
	csrf, outcome := c.fetchCSRFToken(ctx, base)
	if !outcome.IsSuccess() {
		return outcome
	}

	// 阶段 4：按网关约定对 口令+CSRF 拼接做 RSA 加密后提交
	encrypted, err := rsaEncryptHex(creds.PrimaryPassword+csrf, keyDoc.Modulus, keyDoc.Exponent)
	if err != nil {
		c.logger.Error("ec password encryption failed", slog.String("error", err.Error()))
		return ECUnknownError
	}

	// 阶段 5：提交并归类
	return c.submitECLogin(ctx, base, creds.UserID, encrypted, csrf)
}

func (c *Conn) fetchSessionSeed(ctx context.Context, base string) ECOutcome {
	resp, err := c.get(ctx, base+"/")
	if err != nil {
		return ECNetworkError
	}
	drain(resp)

	u, err := url.Parse(c.cfg.ECBaseURL)
	if err != nil || len(c.client.Jar.Cookies(u)) == 0 {
		c.logger.Warn("ec gateway issued no session seed cookie")
		return ECNoSessionSeed
	}
	return ECSuccess
}

func (c *Conn) fetchKeyDocument(ctx context.Context, base string) (rsaKeyDocument, ECOutcome) {
	var doc rsaKeyDocument

	resp, err := c.get(ctx, base+c.cfg.ECKeyPath)
	if err != nil {
		return doc, ECNetworkError
	}
	body, err := readBody(resp)
	if err != nil {
		return doc, ECNetworkError
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		c.logger.Warn("ec key document is not valid json", slog.String("error", err.Error()))
		return doc, ECNoRSAKey
	}
	if doc.Modulus == "" {
		return doc, ECNoRSAKey
	}
	if doc.Exponent == "" {
		return doc, ECNoRSAExponent
	}
	return doc, ECSuccess
}

func (c *Conn) fetchCSRFToken(ctx context.Context, base string) (string, ECOutcome) {
	resp, err := c.get(ctx, base+c.cfg.ECLoginPath)
	if err != nil {
		return "", ECNetworkError
	}
	body, err := readBody(resp)
	if err != nil {
		return "", ECNetworkError
	}
	m := csrfTokenPattern.FindSubmatch(body)
	if m == nil || len(m[1]) == 0 {
		return "", ECNoCSRFToken
	}
	return string(m[1]), ECSuccess
}

func (c *Conn) submitECLogin(ctx context.Context, base, userID, encryptedPassword, csrf string) ECOutcome {
	form := url.Values{
		"username":  {userID},
		"password":  {encryptedPassword},
		"csrftoken": {csrf},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+c.cfg.ECLoginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return ECUnknownError
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return ECNetworkError
	}
	body, err := readBody(resp)
	if err != nil {
		return ECNetworkError
	}

	text := string(body)
	switch {
	case strings.Contains(text, c.cfg.ChallengeMarker):
		// 网关要求验证码/人机校验：疑似风控，不允许盲目重放
		c.logger.Warn("ec login challenged, possible attack suspicion")
		return ECSuspectedAttack
	case strings.Contains(text, c.cfg.InvalidCredentialMarker):
		return ECInvalidCredentials
	case !landedOnLoginPage(resp, c.cfg.ECLoginPath) && resp.StatusCode == http.StatusOK:
		// 登录成功后网关重定向离开登录页
		c.logger.Info("ec login succeeded", slog.String("user_id", userID))
		return ECSuccess
	default:
		c.logger.Warn("ec login response not classified",
			slog.Int("status", resp.StatusCode),
			slog.String("final_path", finalPath(resp)))
		return ECUnknownError
	}
}

// rsaEncryptHex 用十六进制模数/指数构造公钥，对明文做 PKCS#1 v1.5
// 加密，返回十六进制密文。网关的 JS 实现即此约定。
func rsaEncryptHex(plaintext, modulusHex, exponentHex string) (string, error) {
	n, ok := new(big.Int).SetString(modulusHex, 16)
	if !ok {
		return "", fmt.Errorf("xsession: malformed rsa modulus")
	}
	e, ok := new(big.Int).SetString(exponentHex, 16)
	if !ok || !e.IsInt64() || e.Int64() <= 0 {
		return "", fmt.Errorf("xsession: malformed rsa exponent")
	}
	pub := &rsa.PublicKey{N: n, E: int(e.Int64())}
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("xsession: rsa encrypt: %w", err)
	}
	return hex.EncodeToString(ciphertext), nil
}

// get 发起一次 GET。调用方负责读取/关闭响应。
func (c *Conn) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

// readBody 读取响应正文（限长）并关闭。
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

// drain 丢弃响应正文并关闭，保证连接复用。
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
	resp.Body.Close()
}

func finalPath(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.Path
}
