// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志构建器，基于 log/slog，内置凭据脱敏与文件轮转
//
// 设计原则：
//   - 日志即唯一外显通道，凭据与票据在输出前强制打码
//   - 支持按配置切换级别、格式与输出目标
package observability
