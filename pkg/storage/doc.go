// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xvault: 凭据与 ticket 的键值存储，支持内存、加密文件和 Redis 后端
//
// 设计原则：
//   - 提供统一的 Store 接口抽象，后端可替换
//   - 敏感数据落盘必须加密（age/scrypt）
//   - 所有阻塞操作接受 context.Context
package storage
