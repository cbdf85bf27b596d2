// Package xvault 提供带命名空间的安全键值存储，用于会话凭据、
// "记住密码"凭据和按用户/服务维度的访问 ticket。
//
// # 存储语义
//
// 值一律是不透明字符串，本层不做任何值内解析。Key 按
// "<namespace>:<key>" 组织，ClearPrefix 支持按前缀批量清理。
//
// # 实现
//
//   - MemoryStore：进程内 map，测试与开发用
//   - FileStore：单个 JSON 文档落盘，用 [filippo.io/age] 的 scrypt
//     口令加密静态存储（密文本身不带任何结构信息）
//   - RedisStore：多实例共享场景，基于 go-redis
//
// # 凭据生命周期
//
// CredentialKeeper 在 Store 之上固化两套持久化形态：
//   - 会话态（user_id / ec_password / password）：登录时写入、
//     进程重启时读取用于静默重登、登出时清除
//   - 记住态（remembered_* + remember_password_enabled）：仅在用户
//     显式开启时写入，登出后保留
//
// [filippo.io/age]: https://filippo.io/age
package xvault
