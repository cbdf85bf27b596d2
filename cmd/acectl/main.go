// acectl 是校园门户聚合端会话核心的命令行工具。
//
// 用法:
//
//	acectl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   配置文件路径 (默认: acekit.yaml)
//	-t, --timeout  命令超时时间 (默认: 30s)
//
// 命令:
//
//	login          登录 EC 网关（可选 --uaap 级联登录 UAAP）
//	check          登录后探测会话有效性
//	ticket get     采收指定子系统的 ticket
//	ticket clear   清除缓存的 ticket
//	logout         清除会话态凭据（--forget 连记住态一起清）
//	help           显示帮助信息
//
// 退出码:
//
//	0: 命令执行成功（check 命令: 会话有效）
//	1: 命令执行失败或会话无效（check 命令）
//	2: 参数错误（缺少必需参数、未知命令等）
//
// 示例:
//
//	acectl login -u 2021114514 -p '密码' --remember
//	acectl check
//	acectl ticket get aac
//	acectl logout --forget
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

// defaultTimeout 默认命令超时时间。
const defaultTimeout = 30 * time.Second

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "acectl",
		Usage:   "校园门户会话核心命令行工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径",
				Value:   "acekit.yaml",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "命令超时时间",
				Value:   defaultTimeout,
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 退出码映射统一在 run() 处理，禁止框架直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	if err := app.Run(ctx, os.Args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		// cli.Exit 与框架参数错误（ExitErrHandler 已输出详情）
		var coder cli.ExitCoder
		if errors.As(err, &coder) {
			return coder.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// setupSignalHandler 在收到中断信号时取消进行中的命令。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
}
