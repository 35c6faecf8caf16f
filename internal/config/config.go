package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// DefaultFileName 是 cwd 下自动发现的配置文件名（可选）。
const DefaultFileName = "imdbscraper.json5"

const (
	DefaultDelay     = 2 * time.Second
	DefaultTimeout   = 10 * time.Second
	DefaultMaxMovies = 20
	DefaultCSVPath   = "imdb_movies_beautifulsoup.csv"
	DefaultJSONPath  = "imdb_movies_beautifulsoup.json"
)

// CLIArgs 保留“是否显式指定”的信息，保证 CLI > 配置文件 > 默认值 的覆盖顺序可实现。
// 例如 --csv="" 必须能关闭配置文件里设置的 csv_path。
type CLIArgs struct {
	ConfigPath string

	Delay    time.Duration
	DelaySet bool

	MaxMovies    int
	MaxMoviesSet bool

	Timeout    time.Duration
	TimeoutSet bool

	CSVPath string
	CSVSet  bool

	JSONPath string
	JSONSet  bool

	FollowNext    bool
	FollowNextSet bool

	ReportPath    string
	ReportPathSet bool

	NFODir    string
	NFODirSet bool

	CacheDir    string
	CacheDirSet bool

	Offline    bool
	OfflineSet bool

	Verbose bool
}

// FileConfig 对应 imdbscraper.json5 的解析结构。
// 时间字段以秒为单位（允许小数）；指针字段用于区分“未配置”和“零值”。
type FileConfig struct {
	Delay      *float64        `json:"delay"`
	MaxMovies  *int            `json:"max_movies"`
	Timeout    *float64        `json:"timeout"`
	FollowNext *bool           `json:"follow_next"`
	CSVPath    *string         `json:"csv_path"`
	JSONPath   *string         `json:"json_path"`
	ReportPath string          `json:"report_path"`
	NFODir     string          `json:"nfo_dir"`
	CacheDir   string          `json:"cache_dir"`
	Offline    *bool           `json:"offline"`
	Proxy      ProxyConfig     `json:"proxy"`
	Telemetry  TelemetryConfig `json:"telemetry"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

type TelemetryConfig struct {
	OTLP OTLPConfig `json:"otlp"`
}

type OTLPConfig struct {
	HTTPEndpoint string            `json:"http_endpoint"`
	GRPCEndpoint string            `json:"grpc_endpoint"`
	Headers      map[string]string `json:"headers"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigFile 是实际读取到的配置文件（未读取时为空）。
	ConfigFile string

	Delay      time.Duration
	MaxMovies  int
	Timeout    time.Duration
	FollowNext bool

	// 为空表示不写出对应文件。
	CSVPath    string
	JSONPath   string
	ReportPath string
	NFODir     string

	CacheDir string
	Offline  bool

	ProxyURL string
	OTLP     OTLPConfig

	Verbose bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在（<name>.json5 或 <name>.local.json5 至少一个）
// 2) 否则尝试 <cwd>/imdbscraper.json5（可选，不存在不报错）
//
// 同目录下的 <name>.local.json5 会覆盖主文件中的非零字段。
// 覆盖优先级：CLI（显式指定）> 配置文件 > 内置默认值。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	required := strings.TrimSpace(cli.ConfigPath) != ""
	cfgPath := filepath.Join(cwdAbs, DefaultFileName)
	if required {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists && required {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	eff, err := merge(cwdAbs, cli, fc)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if exists {
		eff.ConfigFile = cfgPath
	}
	return eff, nil
}

func merge(cwd string, cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	eff := EffectiveConfig{
		Delay:     DefaultDelay,
		MaxMovies: DefaultMaxMovies,
		Timeout:   DefaultTimeout,
		CSVPath:   DefaultCSVPath,
		JSONPath:  DefaultJSONPath,
		Verbose:   cli.Verbose,
	}

	// 配置文件
	if fc.Delay != nil {
		eff.Delay = Seconds(*fc.Delay)
	}
	if fc.MaxMovies != nil {
		eff.MaxMovies = *fc.MaxMovies
	}
	if fc.Timeout != nil {
		eff.Timeout = Seconds(*fc.Timeout)
	}
	if fc.FollowNext != nil {
		eff.FollowNext = *fc.FollowNext
	}
	if fc.CSVPath != nil {
		eff.CSVPath = *fc.CSVPath
	}
	if fc.JSONPath != nil {
		eff.JSONPath = *fc.JSONPath
	}
	eff.ReportPath = fc.ReportPath
	eff.NFODir = fc.NFODir
	eff.CacheDir = fc.CacheDir
	if fc.Offline != nil {
		eff.Offline = *fc.Offline
	}

	// CLI
	if cli.DelaySet {
		eff.Delay = cli.Delay
	}
	if cli.MaxMoviesSet {
		eff.MaxMovies = cli.MaxMovies
	}
	if cli.TimeoutSet {
		eff.Timeout = cli.Timeout
	}
	if cli.FollowNextSet {
		eff.FollowNext = cli.FollowNext
	}
	if cli.CSVSet {
		eff.CSVPath = cli.CSVPath
	}
	if cli.JSONSet {
		eff.JSONPath = cli.JSONPath
	}
	if cli.ReportPathSet {
		eff.ReportPath = cli.ReportPath
	}
	if cli.NFODirSet {
		eff.NFODir = cli.NFODir
	}
	if cli.CacheDirSet {
		eff.CacheDir = cli.CacheDir
	}
	if cli.OfflineSet {
		eff.Offline = cli.Offline
	}

	if eff.Delay < 0 {
		return EffectiveConfig{}, fmt.Errorf("delay 不能为负数：%s", eff.Delay)
	}
	if eff.Timeout <= 0 {
		return EffectiveConfig{}, fmt.Errorf("timeout 必须大于 0：%s", eff.Timeout)
	}
	if eff.MaxMovies < 1 {
		return EffectiveConfig{}, fmt.Errorf("max_movies 必须 >= 1，实际是 %d", eff.MaxMovies)
	}

	eff.CSVPath = absCleanFrom(cwd, eff.CSVPath)
	eff.JSONPath = absCleanFrom(cwd, eff.JSONPath)
	eff.ReportPath = absCleanFrom(cwd, eff.ReportPath)
	eff.NFODir = absCleanFrom(cwd, eff.NFODir)
	eff.CacheDir = absCleanFrom(cwd, eff.CacheDir)

	if eff.Offline && eff.CacheDir == "" {
		return EffectiveConfig{}, fmt.Errorf("offline=true 但 cache_dir 为空")
	}

	proxyURL := strings.TrimSpace(fc.Proxy.URL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return EffectiveConfig{}, fmt.Errorf("proxy.url 无效：%w", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return EffectiveConfig{}, fmt.Errorf("proxy.url 只支持 http/https/socks5：%q", proxyURL)
		}
	}
	eff.ProxyURL = proxyURL

	eff.OTLP = OTLPConfig{
		HTTPEndpoint: strings.TrimSpace(fc.Telemetry.OTLP.HTTPEndpoint),
		GRPCEndpoint: strings.TrimSpace(fc.Telemetry.OTLP.GRPCEndpoint),
	}
	if len(fc.Telemetry.OTLP.Headers) > 0 {
		eff.OTLP.Headers = make(map[string]string, len(fc.Telemetry.OTLP.Headers))
		for k, v := range fc.Telemetry.OTLP.Headers {
			eff.OTLP.Headers[k] = v
		}
	}
	return eff, nil
}

// Seconds 把“秒”换算为 Duration；配置文件与命令行都以秒表达间隔。
func Seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 为空：保持为空（表示“未配置”）
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// localPath 返回 <dir>/<name>.local.<ext>。
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// readFileConfig 读取 path 与其 .local 覆盖文件，并用 mergo 合并。
// 返回值 exists 表示至少有一个文件存在（都不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return FileConfig{}, false, err
	}
	if err == nil {
		exists = true
		if err := json5.Unmarshal(b, &fc); err != nil {
			return FileConfig{}, true, err
		}
	}

	lp := localPath(path)
	lb, err := os.ReadFile(lp)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, exists, nil
		}
		return FileConfig{}, exists, err
	}
	var override FileConfig
	if err := json5.Unmarshal(lb, &override); err != nil {
		return FileConfig{}, true, fmt.Errorf("%s：%w", lp, err)
	}
	if err := mergo.Merge(&fc, override, mergo.WithOverride); err != nil {
		return FileConfig{}, true, err
	}
	slog.Debug("已合并本地覆盖配置", "local", lp)
	return fc, true, nil
}
