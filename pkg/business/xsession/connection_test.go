package xsession

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibuxiangx/acekit/pkg/storage/xvault"
)

const (
	testCSRFToken = "tok-123"
	testPassword  = "s3cret"
	testUserID    = "2021114514"
)

// ecGateway 模拟 EC 网关的完整登录协议。
// 字段在发请求前设置，用于注入各阶段的失败形态。
type ecGateway struct {
	t      *testing.T
	key    *rsa.PrivateKey
	server *httptest.Server

	posts atomic.Int32

	noSeed      bool
	keyBody     string // 非空时覆盖公钥文档
	loginPage   string // 非空时覆盖登录页
	postBody    string // 非空时覆盖提交响应正文（状态 200）
	postDelay   time.Duration
	probeStatus int  // 探活响应状态，零值按 200 处理
	probeToLogn bool // 探活重定向回登录页
}

func newECGateway(t *testing.T) *ecGateway {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	g := &ecGateway{t: t, key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !g.noSeed {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "seed-1", Path: "/"})
		}
		fmt.Fprint(w, "gateway root")
	})
	mux.HandleFunc("/authserver/getPublicKey", func(w http.ResponseWriter, _ *http.Request) {
		if g.keyBody != "" {
			fmt.Fprint(w, g.keyBody)
			return
		}
		fmt.Fprintf(w, `{"modulus":"%s","exponent":"%x"}`, g.key.N.Text(16), g.key.E)
	})
	mux.HandleFunc("/authserver/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if g.loginPage != "" {
				fmt.Fprint(w, g.loginPage)
				return
			}
			fmt.Fprintf(w, `<form><input type="hidden" name="csrftoken" value="%s"></form>`, testCSRFToken)
			return
		}

		g.posts.Add(1)
		if g.postDelay > 0 {
			time.Sleep(g.postDelay)
		}
		if g.postBody != "" {
			fmt.Fprint(w, g.postBody)
			return
		}

		require.NoError(t, r.ParseForm())
		assert.Equal(t, testUserID, r.PostForm.Get("username"))
		assert.Equal(t, testCSRFToken, r.PostForm.Get("csrftoken"))

		ciphertext, err := hex.DecodeString(r.PostForm.Get("password"))
		require.NoError(t, err)
		plain, err := rsa.DecryptPKCS1v15(nil, g.key, ciphertext)
		require.NoError(t, err)

		if string(plain) != testPassword+testCSRFToken {
			fmt.Fprint(w, "用户名或密码错误")
			return
		}
		http.Redirect(w, r, "/authserver/index", http.StatusFound)
	})
	mux.HandleFunc("/authserver/index", func(w http.ResponseWriter, r *http.Request) {
		if g.probeToLogn {
			http.Redirect(w, r, "/authserver/login", http.StatusFound)
			return
		}
		if g.probeStatus != 0 {
			w.WriteHeader(g.probeStatus)
			return
		}
		fmt.Fprint(w, "welcome")
	})

	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func (g *ecGateway) conn(t *testing.T, opts ...ConnOption) *Conn {
	t.Helper()
	c, err := NewConn(&Config{
		ECBaseURL:   g.server.URL,
		UAAPBaseURL: g.server.URL,
	}, opts...)
	require.NoError(t, err)
	return c
}

func testCredentials() xvault.Credentials {
	return xvault.Credentials{UserID: testUserID, PrimaryPassword: testPassword}
}

func TestNewConn(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewConn(nil)
		assert.ErrorIs(t, err, ErrNilConfig)
	})

	t.Run("missing ec base url", func(t *testing.T) {
		_, err := NewConn(&Config{})
		assert.ErrorIs(t, err, ErrMissingECBaseURL)
	})

	t.Run("valid config", func(t *testing.T) {
		c, err := NewConn(&Config{ECBaseURL: "https://ec.example.edu.cn"})
		require.NoError(t, err)
		assert.NotEmpty(t, c.ID())
		assert.Empty(t, c.UserID())
		assert.NotNil(t, c.HTTPClient())
		assert.NotNil(t, c.HTTPClient().Jar)
	})

	t.Run("does not mutate caller config", func(t *testing.T) {
		cfg := &Config{ECBaseURL: "https://ec.example.edu.cn"}
		_, err := NewConn(cfg)
		require.NoError(t, err)
		assert.Empty(t, cfg.ECLoginPath)
	})
}

func TestConn_LoginEC(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)

		outcome := c.LoginEC(context.Background(), testCredentials())
		assert.Equal(t, ECSuccess, outcome)
		assert.Equal(t, testUserID, c.UserID())
		assert.Equal(t, "seed-1", c.SessionCookie())
	})

	t.Run("empty credentials", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)

		assert.Equal(t, ECInvalidCredentials,
			c.LoginEC(context.Background(), xvault.Credentials{}))
		assert.Equal(t, int32(0), g.posts.Load())
	})

	t.Run("no session seed", func(t *testing.T) {
		g := newECGateway(t)
		g.noSeed = true
		c := g.conn(t)

		assert.Equal(t, ECNoSessionSeed, c.LoginEC(context.Background(), testCredentials()))
	})

	t.Run("key document not json", func(t *testing.T) {
		g := newECGateway(t)
		g.keyBody = "<html>maintenance</html>"
		c := g.conn(t)

		assert.Equal(t, ECNoRSAKey, c.LoginEC(context.Background(), testCredentials()))
	})

	t.Run("key document missing modulus", func(t *testing.T) {
		g := newECGateway(t)
		g.keyBody = `{"exponent":"10001"}`
		c := g.conn(t)

		assert.Equal(t, ECNoRSAKey, c.LoginEC(context.Background(), testCredentials()))
	})

	t.Run("key document missing exponent", func(t *testing.T) {
		g := newECGateway(t)
		g.keyBody = `{"modulus":"ab12"}`
		c := g.conn(t)

		assert.Equal(t, ECNoRSAExponent, c.LoginEC(context.Background(), testCredentials()))
	})

	t.Run("login page without csrf token", func(t *testing.T) {
		g := newECGateway(t)
		g.loginPage = "<form></form>"
		c := g.conn(t)

		assert.Equal(t, ECNoCSRFToken, c.LoginEC(context.Background(), testCredentials()))
	})

	t.Run("wrong password", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)

		creds := testCredentials()
		creds.PrimaryPassword = "wrong"
		assert.Equal(t, ECInvalidCredentials, c.LoginEC(context.Background(), creds))
		assert.Empty(t, c.UserID())
	})

	t.Run("challenge response", func(t *testing.T) {
		g := newECGateway(t)
		g.postBody = "请输入验证码"
		c := g.conn(t)

		assert.Equal(t, ECSuspectedAttack, c.LoginEC(context.Background(), testCredentials()))
	})

	t.Run("unclassifiable response", func(t *testing.T) {
		g := newECGateway(t)
		g.postBody = "系统繁忙"
		c := g.conn(t)

		// 200 但仍停留在登录页，无任何特征串命中
		assert.Equal(t, ECUnknownError, c.LoginEC(context.Background(), testCredentials()))
	})

	t.Run("network error", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)
		g.server.Close()

		assert.Equal(t, ECNetworkError, c.LoginEC(context.Background(), testCredentials()))
	})

	t.Run("idempotent after success", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)

		require.Equal(t, ECSuccess, c.LoginEC(context.Background(), testCredentials()))
		require.Equal(t, ECSuccess, c.LoginEC(context.Background(), testCredentials()))
		assert.Equal(t, int32(1), g.posts.Load())
	})

	t.Run("failed login can be retried", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)

		creds := testCredentials()
		creds.PrimaryPassword = "wrong"
		require.Equal(t, ECInvalidCredentials, c.LoginEC(context.Background(), creds))

		require.Equal(t, ECSuccess, c.LoginEC(context.Background(), testCredentials()))
		assert.Equal(t, int32(2), g.posts.Load())
	})

	t.Run("concurrent logins coalesce", func(t *testing.T) {
		g := newECGateway(t)
		g.postDelay = 100 * time.Millisecond
		c := g.conn(t)

		const workers = 8
		outcomes := make([]ECOutcome, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = c.LoginEC(context.Background(), testCredentials())
			}(i)
		}
		wg.Wait()

		for i, outcome := range outcomes {
			assert.Equal(t, ECSuccess, outcome, "worker %d", i)
		}
		assert.Equal(t, int32(1), g.posts.Load())
	})

	t.Run("closed connection", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)
		c.Close()

		assert.Equal(t, ECUnknownError, c.LoginEC(context.Background(), testCredentials()))
		assert.Equal(t, int32(0), g.posts.Load())
	})
}

func TestConn_ProbeSession(t *testing.T) {
	t.Run("gateway accepts session", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)

		outcome := c.ProbeSession(context.Background())
		assert.Equal(t, CheckResolved, outcome.Kind)
		assert.True(t, outcome.LoggedIn)
		assert.True(t, c.CheckSession(context.Background()))
	})

	t.Run("unauthorized status", func(t *testing.T) {
		g := newECGateway(t)
		g.probeStatus = http.StatusUnauthorized
		c := g.conn(t)

		outcome := c.ProbeSession(context.Background())
		assert.Equal(t, CheckResolved, outcome.Kind)
		assert.False(t, outcome.LoggedIn)
		assert.False(t, c.CheckSession(context.Background()))
	})

	t.Run("redirected to login page", func(t *testing.T) {
		g := newECGateway(t)
		g.probeToLogn = true
		c := g.conn(t)

		outcome := c.ProbeSession(context.Background())
		assert.Equal(t, CheckResolved, outcome.Kind)
		assert.False(t, outcome.LoggedIn)
	})

	t.Run("network error assumes still valid", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)
		g.server.Close()

		outcome := c.ProbeSession(context.Background())
		assert.Equal(t, CheckNetworkError, outcome.Kind)
		assert.True(t, outcome.StillValid())
		assert.True(t, c.CheckSession(context.Background()))
	})

	t.Run("unexpected status assumes still valid", func(t *testing.T) {
		g := newECGateway(t)
		g.probeStatus = http.StatusBadGateway
		c := g.conn(t)

		outcome := c.ProbeSession(context.Background())
		assert.Equal(t, CheckUnknownError, outcome.Kind)
		assert.True(t, outcome.StillValid())
	})

	t.Run("closed connection reports invalid", func(t *testing.T) {
		g := newECGateway(t)
		c := g.conn(t)
		c.Close()

		assert.False(t, c.CheckSession(context.Background()))
	})
}
