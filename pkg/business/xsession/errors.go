package xsession

import "errors"

var (
	// ErrNilConfig 表示传入的配置为 nil。
	ErrNilConfig = errors.New("xsession: nil config")

	// ErrMissingECBaseURL 表示 EC 网关地址未配置。
	ErrMissingECBaseURL = errors.New("xsession: missing ec base url")

	// ErrInvalidBaseURL 表示网关地址格式无效（必须含协议与主机名）。
	ErrInvalidBaseURL = errors.New("xsession: invalid base url: must include scheme and host")

	// ErrMissingUAAPBaseURL 表示调用了 UAAP 登录但未配置 UAAP 网关地址。
	ErrMissingUAAPBaseURL = errors.New("xsession: missing uaap base url")

	// ErrMissingCredentials 表示凭据为空。
	ErrMissingCredentials = errors.New("xsession: missing credentials")

	// ErrConnClosed 表示连接已关闭。
	ErrConnClosed = errors.New("xsession: connection closed")

	// ErrMonitorDisposed 表示监视器已释放，不可再启动。
	ErrMonitorDisposed = errors.New("xsession: monitor disposed")
)
