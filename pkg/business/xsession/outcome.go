package xsession

// ECOutcome EC 网关登录结果。
// 带标签枚举：恰好一个原因生效，非法组合不可表示。
type ECOutcome int

const (
	// ECSuccess 登录成功。
	ECSuccess ECOutcome = iota

	// ECNoSessionSeed 未取得会话种子 Cookie。
	ECNoSessionSeed

	// ECNoRSAKey 密钥文档缺失 RSA 模数。
	ECNoRSAKey

	// ECNoRSAExponent 密钥文档缺失 RSA 指数。
	ECNoRSAExponent

	// ECNoCSRFToken 登录页中未找到 CSRF token。
	ECNoCSRFToken

	// ECInvalidCredentials 用户名或口令错误。
	ECInvalidCredentials

	// ECSuspectedAttack 网关要求验证码/人机校验（疑似风控触发）。
	ECSuspectedAttack

	// ECNetworkError 传输层失败。
	ECNetworkError

	// ECUnknownError 响应无法归类。
	ECUnknownError
)

// IsSuccess 当且仅当结果为 ECSuccess。
func (o ECOutcome) IsSuccess() bool {
	return o == ECSuccess
}

func (o ECOutcome) String() string {
	switch o {
	case ECSuccess:
		return "success"
	case ECNoSessionSeed:
		return "no_session_seed"
	case ECNoRSAKey:
		return "no_rsa_key"
	case ECNoRSAExponent:
		return "no_rsa_exponent"
	case ECNoCSRFToken:
		return "no_csrf_token"
	case ECInvalidCredentials:
		return "invalid_credentials"
	case ECSuspectedAttack:
		return "suspected_attack"
	case ECNetworkError:
		return "network_error"
	default:
		return "unknown_error"
	}
}

// UAAPOutcome UAAP/CAS 网关登录结果。
type UAAPOutcome int

const (
	// UAAPSuccess 登录成功。
	UAAPSuccess UAAPOutcome = iota

	// UAAPNoLoginToken 登录页中未找到 lt 隐藏域。
	UAAPNoLoginToken

	// UAAPNoExecutionToken 登录页中未找到 execution 隐藏域。
	UAAPNoExecutionToken

	// UAAPInvalidCredentials 用户名或口令错误。
	UAAPInvalidCredentials

	// UAAPNetworkError 传输层失败。
	UAAPNetworkError

	// UAAPUnknownError 响应无法归类。
	UAAPUnknownError
)

// IsSuccess 当且仅当结果为 UAAPSuccess。
func (o UAAPOutcome) IsSuccess() bool {
	return o == UAAPSuccess
}

func (o UAAPOutcome) String() string {
	switch o {
	case UAAPSuccess:
		return "success"
	case UAAPNoLoginToken:
		return "no_login_token"
	case UAAPNoExecutionToken:
		return "no_execution_token"
	case UAAPInvalidCredentials:
		return "invalid_credentials"
	case UAAPNetworkError:
		return "network_error"
	default:
		return "unknown_error"
	}
}

// CheckKind 探活结果的类别。
type CheckKind int

const (
	// CheckResolved 网关给出了明确答复（LoggedIn 有效）。
	CheckResolved CheckKind = iota

	// CheckNetworkError 传输层失败，无法判定。
	CheckNetworkError

	// CheckUnknownError 响应无法归类。
	CheckUnknownError
)

// SessionCheckOutcome 会话探活结果，仅用于决定是否继续轮询。
type SessionCheckOutcome struct {
	// Kind 结果类别。
	Kind CheckKind

	// LoggedIn 网关是否仍认可会话；仅 Kind == CheckResolved 时有效。
	LoggedIn bool
}

// StillValid 按"网络错误假定仍有效"的策略折算为布尔判定。
// 瞬时断网不应被误判为登出，只有网关明确答复未登录才算失效。
func (o SessionCheckOutcome) StillValid() bool {
	if o.Kind != CheckResolved {
		return true
	}
	return o.LoggedIn
}
