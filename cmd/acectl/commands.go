package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sibuxiangx/acekit/pkg/business/xsession"
	"github.com/sibuxiangx/acekit/pkg/business/xticket"
	"github.com/sibuxiangx/acekit/pkg/resilience/xclassify"
	"github.com/sibuxiangx/acekit/pkg/resilience/xretry"
	"github.com/sibuxiangx/acekit/pkg/storage/xvault"
)

// cliEnv 一次命令执行所需的全部依赖。
type cliEnv struct {
	cfg     *appConfig
	logger  *slog.Logger
	cleanup func()
	store   xvault.Store
	keeper  *xvault.CredentialKeeper
	conn    *xsession.Conn
}

// newEnv 从全局选项装配命令执行环境。
func newEnv(cmd *cli.Command) (*cliEnv, error) {
	cfg, err := loadAppConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if base := cmd.String("ec-base-url"); base != "" {
		cfg.EC.BaseURL = base
	}
	if cfg.EC.BaseURL == "" {
		return nil, errors.New("未配置 EC 网关地址（配置文件 ec.base_url 或 --ec-base-url）")
	}

	logger, cleanup, err := buildLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(cfg)
	if err != nil {
		cleanup()
		return nil, err
	}
	keeper, err := xvault.NewCredentialKeeper(store, "")
	if err != nil {
		cleanup()
		return nil, err
	}
	conn, err := buildConn(cfg, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &cliEnv{
		cfg:     cfg,
		logger:  logger,
		cleanup: cleanup,
		store:   store,
		keeper:  keeper,
		conn:    conn,
	}, nil
}

// credentialFlags 登录类命令共用的凭据选项。
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "学号/工号",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "EC 网关口令",
		},
		&cli.StringFlag{
			Name:  "uaap-password",
			Usage: "UAAP 网关口令（缺省时沿用 EC 口令）",
		},
		&cli.StringFlag{
			Name:  "ec-base-url",
			Usage: "EC 网关地址（覆盖配置文件）",
		},
	}
}

// resolveCredentials 按 flag > 记住态 的顺序取得登录凭据。
func resolveCredentials(ctx context.Context, cmd *cli.Command, keeper *xvault.CredentialKeeper) (xvault.Credentials, error) {
	if user := cmd.String("user"); user != "" {
		return xvault.Credentials{
			UserID:            user,
			PrimaryPassword:   cmd.String("password"),
			SecondaryPassword: cmd.String("uaap-password"),
		}, nil
	}

	creds, err := keeper.LoadRemembered(ctx)
	if errors.Is(err, xvault.ErrNotFound) {
		return xvault.Credentials{}, errors.New("未提供凭据且没有记住的账号（使用 -u/-p 或先 login --remember）")
	}
	if err != nil {
		return xvault.Credentials{}, err
	}
	return creds, nil
}

// loginEC 执行 EC 登录并在失败时输出原因。
func loginEC(ctx context.Context, env *cliEnv, creds xvault.Credentials) error {
	outcome := env.conn.LoginEC(ctx, creds)
	if !outcome.IsSuccess() {
		fmt.Fprintf(os.Stderr, "EC 登录失败: %s\n", outcome)
		return &exitError{code: 1}
	}
	return nil
}

func createCommands() []*cli.Command {
	return []*cli.Command{
		createLoginCommand(),
		createCheckCommand(),
		createTicketCommand(),
		createLogoutCommand(),
	}
}

func createLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "登录 EC 网关",
		Flags: append(credentialFlags(),
			&cli.BoolFlag{
				Name:  "remember",
				Usage: "登录成功后保存记住态凭据",
			},
			&cli.BoolFlag{
				Name:  "uaap",
				Usage: "EC 登录成功后级联登录 UAAP",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.cleanup()

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			creds, err := resolveCredentials(ctx, cmd, env.keeper)
			if err != nil {
				return err
			}
			if err := loginEC(ctx, env, creds); err != nil {
				return err
			}
			fmt.Println("EC 登录成功")

			if err := env.keeper.SaveSession(ctx, creds); err != nil {
				return err
			}
			if cmd.Bool("remember") {
				if err := env.keeper.SaveRemembered(ctx, creds); err != nil {
					return err
				}
				fmt.Println("已保存记住态凭据")
			}

			if cmd.Bool("uaap") {
				outcome := env.conn.LoginUAAP(ctx, creds)
				if !outcome.IsSuccess() {
					fmt.Fprintf(os.Stderr, "UAAP 登录失败: %s\n", outcome)
					return &exitError{code: 1}
				}
				fmt.Println("UAAP 登录成功")
			}
			return nil
		},
	}
}

func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "登录后探测会话有效性",
		Flags: credentialFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.cleanup()

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			creds, err := resolveCredentials(ctx, cmd, env.keeper)
			if err != nil {
				return err
			}
			if err := loginEC(ctx, env, creds); err != nil {
				return err
			}

			if !env.conn.CheckSession(ctx) {
				fmt.Println("会话无效")
				return &exitError{code: 1}
			}
			fmt.Println("会话有效")
			return nil
		},
	}
}

func createTicketCommand() *cli.Command {
	return &cli.Command{
		Name:  "ticket",
		Usage: "管理子系统 ticket",
		Commands: []*cli.Command{
			createTicketGetCommand(),
			createTicketClearCommand(),
		},
	}
}

func createTicketGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "采收指定子系统的 ticket（命中缓存时直接返回）",
		ArgsUsage: "<service>",
		Flags: append(credentialFlags(),
			&cli.BoolFlag{
				Name:  "uaap",
				Usage: "采收前级联登录 UAAP（VPN 反代下的子系统需要）",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			service := cmd.Args().First()
			if service == "" {
				return cli.Exit("缺少服务名参数", 2)
			}

			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.cleanup()

			serviceURL, ok := env.cfg.Services[service]
			if !ok {
				return fmt.Errorf("配置中没有服务 %q 的登录入口（services.%s）", service, service)
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			creds, err := resolveCredentials(ctx, cmd, env.keeper)
			if err != nil {
				return err
			}
			if err := loginEC(ctx, env, creds); err != nil {
				return err
			}
			if cmd.Bool("uaap") {
				if outcome := env.conn.LoginUAAP(ctx, creds); !outcome.IsSuccess() {
					fmt.Fprintf(os.Stderr, "UAAP 登录失败: %s\n", outcome)
					return &exitError{code: 1}
				}
			}

			manager, err := xticket.NewManager(env.store)
			if err != nil {
				return err
			}
			harvester, err := xticket.NewHarvester(env.conn.HTTPClient(),
				xticket.WithLogger(env.logger))
			if err != nil {
				return err
			}

			attempts := env.cfg.Retry.MaxAttempts
			if attempts <= 0 {
				attempts = 3
			}
			caller := xclassify.NewCaller(
				xclassify.WithRetryer(xretry.NewRetryer(
					xretry.WithRetryPolicy(xretry.NewFixedRetry(attempts)))),
				xclassify.WithBreaker("ticket_harvest"),
				xclassify.WithLogger(env.logger),
			)

			ticket, err := manager.GetOrHarvest(ctx, creds.UserID, service,
				func(ctx context.Context) (string, error) {
					result := xclassify.Invoke(ctx, caller, "harvest "+service,
						func(ctx context.Context) (string, error) {
							return harvester.Harvest(ctx, serviceURL)
						})
					if ticket, ok := result.Unwrap(); ok {
						return ticket, nil
					}
					return "", errors.New(result.Error)
				})
			if err != nil {
				return err
			}
			fmt.Println(ticket)
			return nil
		},
	}
}

func createTicketClearCommand() *cli.Command {
	return &cli.Command{
		Name:      "clear",
		Usage:     "清除缓存的 ticket",
		ArgsUsage: "[service...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "仅清除指定用户的 ticket",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.cleanup()

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			manager, err := xticket.NewManager(env.store)
			if err != nil {
				return err
			}

			// 未显式给出服务名时按配置中的全部服务清理
			services := cmd.Args().Slice()
			if len(services) == 0 {
				for name := range env.cfg.Services {
					services = append(services, name)
				}
			}
			if len(services) == 0 {
				return cli.Exit("没有可清理的服务（指定参数或配置 services）", 2)
			}

			if user := cmd.String("user"); user != "" {
				if err := manager.ClearUser(ctx, user, services...); err != nil {
					return err
				}
				fmt.Printf("已清除用户 %s 在 %d 个服务下的 ticket\n", user, len(services))
				return nil
			}

			total := 0
			for _, service := range services {
				n, err := manager.ClearService(ctx, service)
				if err != nil {
					return err
				}
				total += n
			}
			fmt.Printf("已清除 %d 条 ticket\n", total)
			return nil
		},
	}
}

func createLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "清除会话态凭据",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "forget",
				Usage: "连记住态凭据一起清除",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer env.cleanup()

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			// 先取会话用户再清凭据，顺带清掉该用户的全部 ticket
			if creds, err := env.keeper.LoadSession(ctx); err == nil &&
				creds.UserID != "" && len(env.cfg.Services) > 0 {
				manager, err := xticket.NewManager(env.store)
				if err != nil {
					return err
				}
				services := make([]string, 0, len(env.cfg.Services))
				for name := range env.cfg.Services {
					services = append(services, name)
				}
				if err := manager.ClearUser(ctx, creds.UserID, services...); err != nil {
					return err
				}
			}

			if err := env.keeper.ClearSession(ctx); err != nil {
				return err
			}
			fmt.Println("已清除会话态凭据")

			if cmd.Bool("forget") {
				if err := env.keeper.ClearRemembered(ctx); err != nil {
					return err
				}
				fmt.Println("已清除记住态凭据")
			}
			return nil
		},
	}
}
