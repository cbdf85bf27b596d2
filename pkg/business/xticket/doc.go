// Package xticket 提供子系统访问 ticket 的采收与缓存。
//
// # 背景
//
// 部分校园子系统（如财务/学分子系统 AAC）不认 EC/UAAP 的会话 Cookie，
// 而是通过 CAS 式重定向链下发一个服务级的不透明 ticket。本包把
// "跟随重定向链 → 识别落地页 → 摘出 ticket" 抽象为通用采收器，
// 任何形状类似的 SSO ticket 都可复用。
//
// # 采收算法
//
// 从 loginServiceUrl 出发，禁用自动重定向逐跳 GET：
//   - 响应为 301/302/303/307/308 时读取 Location 继续（相对地址
//     按当前 URL 解析）；缺失 Location 是不可恢复错误
//   - 落地 URL 的 path 命中配置的 pattern 时，从 query/fragment 中
//     取出 ticket= 的值（截到下一个 & 或 #），百分号解码后立即返回，
//     剩余跳数放弃
//   - 跳数达到上限（10）仍未落地 ⇒ ErrTooManyRedirects
//
// # 缓存
//
// Manager 以 (userID, serviceName) 为键做两层缓存：L1 进程内
// expirable LRU，L2 xvault.Store。ticket 本层不追踪有效期——
// 失效只能在下游请求失败时发现，由调用方删除后重新采收。
package xticket
