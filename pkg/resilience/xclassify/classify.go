package xclassify

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/sibuxiangx/acekit/pkg/resilience/xretry"
)

// 子串匹配集合。全部小写，匹配前先 strings.ToLower。
var (
	retryableHints    = []string{"timeout", "connection", "network", "socket"}
	nonRetryableHints = []string{"authentication", "unauthorized", "forbidden", "invalid"}
)

// Classify 把任意错误映射为可重试判定和归一化描述。
//
// 判定顺序：
//  1. nil ⇒ 不可重试（无意义，detail 为空）
//  2. xretry.RetryableError ⇒ 按 Retryable()
//  3. 结构化传输错误（超时/连接拒绝/连接重置）⇒ 可重试
//  4. 反序列化错误 ⇒ 不可重试
//  5. 子串匹配，两边都不命中时默认可重试
func Classify(err error) (retryable bool, detail string) {
	if err == nil {
		return false, ""
	}
	detail = err.Error()

	// 显式标记的错误优先
	var re xretry.RetryableError
	if errors.As(err, &re) {
		return re.Retryable(), detail
	}

	// 结构化传输错误
	if errors.Is(err, context.DeadlineExceeded) {
		return true, detail
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true, detail
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true, detail
	}

	// 格式/反序列化错误：重试不会变好
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, detail
	}

	// 非结构化错误：子串匹配
	lower := strings.ToLower(detail)
	for _, hint := range nonRetryableHints {
		if strings.Contains(lower, hint) {
			return false, detail
		}
	}
	for _, hint := range retryableHints {
		if strings.Contains(lower, hint) {
			return true, detail
		}
	}

	// 默认可重试（乐观默认，见包文档）
	return true, detail
}
