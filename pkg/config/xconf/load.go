package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置文件格式。
type Format string

const (
	// FormatYAML YAML 格式：.yaml / .yml。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式：.json。
	FormatJSON Format = "json"
)

// 反序列化使用的分隔符与结构体标签。
const (
	delim = "."
	tag   = "koanf"
)

// Load 读取配置文件并反序列化到 T。
// 格式按文件扩展名识别。
func Load[T any](path string) (*T, error) {
	var zero *T
	if path == "" {
		return zero, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return zero, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return LoadBytes[T](data, format)
}

// LoadBytes 从字节数据反序列化到 T，格式需显式指定。
// 空数据返回 T 的零值，与读空文件行为一致。
func LoadBytes[T any](data []byte, format Format) (*T, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, ErrUnsupportedFormat
	}

	k := koanf.New(delim)
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	target := new(T)
	if err := k.UnmarshalWithConf("", target, koanf.UnmarshalConf{Tag: tag}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return target, nil
}

// detectFormat 根据文件扩展名识别配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}
