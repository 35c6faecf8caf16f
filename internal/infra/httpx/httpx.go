package httpx

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 10 * time.Second

	tracerName = "imdbscraper/http"
)

// BrowserHeaders 是每个请求携带的“浏览器形态”请求头。
//
// 不设置 Accept-Encoding：交给 net/http 自动协商 gzip 并透明解压，
// 手动声明 br 会拿到无法解压的响应体。
var BrowserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// Options 是构造会话时唯一可调的网络参数。
type Options struct {
	// Timeout 是单次请求的总超时；<=0 时使用 DefaultTimeout。
	Timeout time.Duration
	// ProxyURL 非空：所有请求走该代理，且每请求新连接。
	ProxyURL string
}

// NewClient 构造整个 run 共用的 HTTP 会话。
//
// 规则：
// - 固定浏览器请求头 + 固定超时
// - 不做重试（失败由调用方记录并跳过该 URL）
// - 请求级日志/trace 由 Instrument 挂载
func NewClient(opts Options) (*resty.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base, err := newBaseTransport(opts.ProxyURL, timeout)
	if err != nil {
		return nil, err
	}

	c := resty.New()
	c.SetTransport(cloudflarebp.AddCloudFlareByPass(base))
	c.SetTimeout(timeout)
	c.SetHeaders(BrowserHeaders)
	c.SetRetryCount(0)
	c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	Instrument(c, tracerName)
	return c, nil
}

func newBaseTransport(proxyURL string, timeout time.Duration) (*http.Transport, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		base.DisableKeepAlives = true
	}
	return base, nil
}
