package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCacheMiss 表示 --offline 模式下缓存中没有该页面。
var ErrCacheMiss = errors.New("cache miss")

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

// BlockedError 表示站点返回的是反爬挑战页而不是真实内容（通常需要浏览器执行 JS）。
// 不尝试绕过：直接当作抓取失败。
type BlockedError struct {
	URL    string
	Reason string // 例如 "aws-waf"
}

func (e *BlockedError) Error() string {
	if e == nil || strings.TrimSpace(e.Reason) == "" {
		return "blocked"
	}
	return "blocked: " + strings.TrimSpace(e.Reason)
}

// Describe 把抓取错误转成一行可操作的提示（用于进度输出与 report）。
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var be *BlockedError
	if errors.As(err, &be) {
		return fmt.Sprintf("被站点拦截（%s）；当前不支持绕过，建议增大 delay 或配置 proxy.url 后重试", be.Reason)
	}

	var hs *HTTPStatusError
	if errors.As(err, &hs) {
		switch hs.StatusCode {
		case 403, 429:
			return fmt.Sprintf("HTTP %d（可能触发反爬/限流），建议增大 delay 或配置 proxy.url", hs.StatusCode)
		case 404:
			return "HTTP 404（页面不存在）"
		default:
			return hs.Error()
		}
	}

	if errors.Is(err, ErrCacheMiss) {
		return "离线模式下缓存未命中"
	}

	low := strings.ToLower(err.Error())
	if strings.Contains(low, "timeout") || strings.Contains(low, "deadline exceeded") {
		return "请求超时：" + err.Error()
	}
	return err.Error()
}
