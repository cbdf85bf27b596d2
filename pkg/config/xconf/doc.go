// Package xconf 提供最小化的配置加载，基于 koanf 实现。
//
// 定位为薄封装：按文件扩展名识别 YAML/JSON，解析后反序列化到
// 调用方给定的结构体。不做配置治理（必选字段校验、默认值注入、
// 环境变量覆盖），各包的 Config 自带 ApplyDefaults/Validate，
// 治理留在拥有语义的那一层。
//
// 用法：
//
//	cfg, err := xconf.Load[portal.Config]("acekit.yaml")
//
// 或从已有字节数据（嵌入资源、远端下发）加载：
//
//	cfg, err := xconf.LoadBytes[portal.Config](data, xconf.FormatYAML)
package xconf
