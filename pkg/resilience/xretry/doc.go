// Package xretry 提供有界重试与指数退避执行器。
//
// # 设计理念
//
// xretry 是所有下游子系统客户端共用的重试原语，采用接口驱动设计：
//   - RetryPolicy：定义是否应该重试
//   - BackoffPolicy：定义重试间隔时间
//
// 底层使用 [avast/retry-go/v5] 实现重试循环。
//
// # 默认行为
//
// 默认策略为 FixedRetry(3) + ExponentialBackoff（初始 1s、倍数 2.0），
// 即失败后在第 2、3 次尝试前分别等待约 1s、2s。
//
// # 副作用操作
//
// 带外部副作用的变更操作（如缴费提交）必须使用 NeverRetry（MaxAttempts=1），
// 非幂等 POST 的重复提交风险由调用方逐点控制，而非本包硬编码。
//
// # 错误分类
//
//   - NewPermanentError(err)：永久性错误，不重试
//   - NewTemporaryError(err)：临时性错误，应重试
//
// 未实现 RetryableError 接口的错误默认视为可重试
// （乐观默认，讨论见 xclassify 包文档）。
//
// # 并发
//
// 退避等待只挂起当前调用方（通过 retry-go 的 timer 实现），
// 不会阻塞进程内其他任务。上下文取消会立即终止等待。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
