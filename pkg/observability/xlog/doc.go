// Package xlog 提供基于 log/slog 的日志构建器。
//
// # 功能概述
//
//   - 链式 Builder：级别、格式（text/json）、输出目标、文件轮转
//   - 文件轮转基于 lumberjack，Build() 返回 cleanup 负责落盘收尾
//   - 内置凭据脱敏：password / passwd / secret / token 字段一律打码
//
// # 脱敏
//
// 本仓库的调用链上大量出现口令与票据，日志里出现明文凭据是事故。
// 脱敏在 Handler 层做，默认开启且不可关闭；调用方无须在每个
// 日志点自觉省略敏感字段。
//
// 用法：
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("debug").
//	    SetFormat("json").
//	    SetRotation("/var/log/acekit.log", 64, 5, 30).
//	    Build()
//	defer cleanup()
package xlog
