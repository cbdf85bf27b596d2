// Package xclassify 提供错误分类与统一响应封装。
//
// # 功能概述
//
//   - Classify：把任意失败映射为「可重试/不可重试」判定和归一化描述
//   - Result[T]：所有下游子系统操作的统一返回信封
//   - Caller / Invoke：重试 + 可选熔断 + 分类的一站式调用包装
//
// # 分类规则
//
// 结构化错误优先：
//   - 超时（net.Error.Timeout、context.DeadlineExceeded）、连接拒绝/重置 ⇒ 可重试
//   - 反序列化/格式错误（encoding/json 的语法与类型错误）⇒ 不可重试
//   - 实现 xretry.RetryableError 的错误按其 Retryable() 判定
//
// 非结构化错误按子串匹配：
//   - 可重试集合：timeout、connection、network、socket
//   - 不可重试集合：authentication、unauthorized、forbidden、invalid
//
// 两个集合都不命中时默认可重试。乐观默认可能把永久性失败误判为
// 暂时性失败从而产生无效重试；调用方的 Retryable 展示逻辑依赖此
// 默认，如需改为白名单式判定，注意这是可观测行为变更。
//
// # 统一信封
//
// Result[T] 的约定：Success 为 true 时 Data 非空；Retryable 仅在
// !Success 时有意义，UI 层据此决定是否提供"重试"入口。
//
// # 熔断
//
// Caller 可选挂接 [sony/gobreaker/v2] 熔断器，网关故障期间快速失败，
// 避免重试风暴压垮校园网关。
//
// [sony/gobreaker/v2]: https://github.com/sony/gobreaker
package xclassify
