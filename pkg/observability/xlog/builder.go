package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// redactedKeys 输出前强制打码的属性键（小写比较）。
// 本仓库的日志上下文里这些字段只可能是凭据或票据。
var redactedKeys = map[string]struct{}{
	"password":   {},
	"passwd":     {},
	"secret":     {},
	"token":      {},
	"ticket":     {},
	"cookie":     {},
	"jsessionid": {},
}

const redactedValue = "***"

// Builder 日志配置构建器。
type Builder struct {
	output    io.Writer
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	rotator   *lumberjack.Logger
	err       error
}

// New 创建构建器。默认 Info 级别、text 格式、输出到 stderr。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置输出目标。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w != nil {
		b.output = w
	}
	return b
}

// SetLevel 设置日志级别。
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别。
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json。空值视为默认 text。
func (b *Builder) SetFormat(format string) *Builder {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if normalized == "" {
		b.format = "text"
		return b
	}
	if normalized != "text" && normalized != "json" {
		b.err = fmt.Errorf("xlog: unknown format %q", format)
		return b
	}
	b.format = normalized
	return b
}

// SetAddSource 是否在日志中附加源码位置。
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetRotation 设置文件轮转输出。
// maxSizeMB 单文件上限，maxBackups 保留份数，maxAgeDays 保留天数；
// 非正值使用 lumberjack 的默认行为。
func (b *Builder) SetRotation(filename string, maxSizeMB, maxBackups, maxAgeDays int) *Builder {
	if filename == "" {
		b.err = fmt.Errorf("xlog: empty rotation filename")
		return b
	}
	b.rotator = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	b.output = b.rotator
	return b
}

// Build 构建 Logger。返回的 cleanup 负责关闭轮转文件，总是非 nil。
func (b *Builder) Build() (*slog.Logger, func(), error) {
	if b.err != nil {
		return nil, func() {}, b.err
	}

	opts := &slog.HandlerOptions{
		Level:       b.levelVar,
		AddSource:   b.addSource,
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}

	cleanup := func() {}
	if b.rotator != nil {
		rotator := b.rotator
		cleanup = func() { _ = rotator.Close() }
	}
	return slog.New(handler), cleanup, nil
}

// redactAttr 对敏感键统一打码。
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if _, sensitive := redactedKeys[strings.ToLower(a.Key)]; sensitive {
		return slog.String(a.Key, redactedValue)
	}
	return a
}
