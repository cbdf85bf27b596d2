// Package xsession 提供校园门户聚合端的会话与认证核心。
//
// # 功能概述
//
//   - Conn：持有共享 HTTP 客户端与 Cookie Jar，承载 EC/UAAP 两级登录
//   - EC 登录：种子 Cookie → RSA 公钥 → CSRF token → 加密提交 → 结果归类
//   - UAAP/CAS 登录：lt/execution 隐藏域提取 → 提交 → 结果归类
//   - Monitor：定时探活，会话失效时自停并向上报告
//
// # 结果即数据
//
// 登录的每个协议阶段失败映射为带标签的结果枚举（ECOutcome / UAAPOutcome），
// 以数据而非异常的形式交给调用方，UI 层可按失败原因分支。
// 登录流程内部不做任何重试——错误口令不会自己变对，验证码触发类副作用
// 也不允许盲目重放；重试策略由调用方通过 xretry 按调用点控制。
//
// # 并发模型
//
// 每进程一个活动会话。登录经 singleflight 合并：并发的第二个登录调用
// 等待第一个的结果，而不是重复发请求。已认证客户端上的子系统调用可以
// 完全并发。CheckSession 与登录共用连接锁，避免在 Cookie Jar 变更中途
// 读取。
//
// # 探活策略
//
// CheckSession 遇到网络错误时视为"未知，假定仍有效"：瞬时断网
// 不应被误判为登出。若要改为悲观判定，注意这是可观测行为变更
// （见 SessionCheckOutcome）。
//
// 探活发现会话失效只向上报告，本层既不清除凭据也不自动重登，
// 是否重新认证由持有会话的上层决定。
//
// # 站点适配
//
// 网关端点、标记字符串与 Cookie 名都是站点相关配置（Config），
// 随校方改版漂移时只需调配置，协议骨架不变。
package xsession
