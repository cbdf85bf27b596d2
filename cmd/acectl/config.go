package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/sibuxiangx/acekit/pkg/business/xsession"
	"github.com/sibuxiangx/acekit/pkg/config/xconf"
	"github.com/sibuxiangx/acekit/pkg/observability/xlog"
	"github.com/sibuxiangx/acekit/pkg/storage/xvault"
)

// appConfig acectl 的文件配置。
type appConfig struct {
	EC struct {
		BaseURL string `koanf:"base_url"`
	} `koanf:"ec"`

	UAAP struct {
		BaseURL string `koanf:"base_url"`
	} `koanf:"uaap"`

	// Services 子系统名称到其登录入口 URL 的映射，
	// 例如 aac: https://vpn.example.edu.cn/aac/sso/login。
	Services map[string]string `koanf:"services"`

	Vault struct {
		// Backend 存储后端：memory / file / redis。
		Backend string `koanf:"backend"`
		// Path file 后端的密文文件路径。
		Path string `koanf:"path"`
		// PassphraseEnv file 后端口令所在的环境变量名。
		PassphraseEnv string `koanf:"passphrase_env"`
		// RedisAddr redis 后端地址。
		RedisAddr string `koanf:"redis_addr"`
	} `koanf:"vault"`

	Retry struct {
		MaxAttempts int `koanf:"max_attempts"`
	} `koanf:"retry"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
		File   string `koanf:"file"`
	} `koanf:"log"`
}

// loadAppConfig 读取配置文件；文件不存在时返回零值配置，
// 允许纯 flag 驱动的使用方式。
func loadAppConfig(path string) (*appConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &appConfig{}, nil
	}
	return xconf.Load[appConfig](path)
}

// buildLogger 按配置构建日志器。
func buildLogger(cfg *appConfig) (*slog.Logger, func(), error) {
	b := xlog.New()
	if cfg.Log.Level != "" {
		b.SetLevelString(cfg.Log.Level)
	}
	if cfg.Log.Format != "" {
		b.SetFormat(cfg.Log.Format)
	}
	if cfg.Log.File != "" {
		b.SetRotation(cfg.Log.File, 64, 5, 30)
	}
	return b.Build()
}

// buildStore 按配置构建凭据/ticket 存储后端。
func buildStore(cfg *appConfig) (xvault.Store, error) {
	switch cfg.Vault.Backend {
	case "", "memory":
		return xvault.NewMemoryStore(), nil
	case "file":
		passphrase := os.Getenv(cfg.Vault.PassphraseEnv)
		if passphrase == "" {
			return nil, fmt.Errorf("vault 口令未设置（环境变量 %s）", cfg.Vault.PassphraseEnv)
		}
		return xvault.NewFileStore(cfg.Vault.Path, passphrase)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Vault.RedisAddr})
		return xvault.NewRedisStore(client)
	default:
		return nil, fmt.Errorf("未知的 vault 后端 %q", cfg.Vault.Backend)
	}
}

// buildConn 按配置构建会话连接。
func buildConn(cfg *appConfig, logger *slog.Logger) (*xsession.Conn, error) {
	return xsession.NewConn(&xsession.Config{
		ECBaseURL:   cfg.EC.BaseURL,
		UAAPBaseURL: cfg.UAAP.BaseURL,
	}, xsession.WithLogger(logger))
}
