package xclassify

// Result 是所有下游子系统操作的统一返回信封。
// Success 为 true 时 Data 非空；Retryable 仅在 !Success 时有意义。
type Result[T any] struct {
	// Success 操作是否成功。
	Success bool `json:"success"`

	// Data 成功时的载荷。
	Data *T `json:"data,omitempty"`

	// Message 人类可读的结果描述。
	Message string `json:"message"`

	// Error 失败时的错误描述。
	Error string `json:"error,omitempty"`

	// Retryable 失败是否值得重试（UI 层据此决定是否提供"重试"入口）。
	Retryable bool `json:"retryable"`
}

// OK 构造成功信封。
func OK[T any](data T, message string) Result[T] {
	return Result[T]{
		Success: true,
		Data:    &data,
		Message: message,
	}
}

// Fail 构造失败信封，错误经 Classify 归类。
func Fail[T any](err error, message string) Result[T] {
	retryable, detail := Classify(err)
	return Result[T]{
		Success:   false,
		Message:   message,
		Error:     detail,
		Retryable: retryable,
	}
}

// Unwrap 返回载荷；失败或载荷缺失时返回零值和 false。
func (r Result[T]) Unwrap() (T, bool) {
	if !r.Success || r.Data == nil {
		var zero T
		return zero, false
	}
	return *r.Data, true
}
