package xticket

import "errors"

var (
	// ErrNilStore 表示传入的存储为 nil。
	ErrNilStore = errors.New("xticket: nil store")

	// ErrNilHTTPClient 表示传入的 HTTP 客户端为 nil。
	ErrNilHTTPClient = errors.New("xticket: nil http client")

	// ErrMissingUserID 表示用户 ID 为空。
	ErrMissingUserID = errors.New("xticket: missing user_id")

	// ErrMissingService 表示服务名为空。
	ErrMissingService = errors.New("xticket: missing service name")

	// ErrTicketNotFound 表示缓存中没有对应 ticket。
	ErrTicketNotFound = errors.New("xticket: ticket not found")

	// ErrTooManyRedirects 表示重定向链超过跳数上限仍未落地。
	ErrTooManyRedirects = errors.New("xticket: too many redirects")

	// ErrMissingLocation 表示重定向响应缺失 Location 头（不可恢复）。
	ErrMissingLocation = errors.New("xticket: redirect without location header")

	// ErrNoTicket 表示落地页中没有 ticket 参数。
	ErrNoTicket = errors.New("xticket: landing url carries no ticket")
)
