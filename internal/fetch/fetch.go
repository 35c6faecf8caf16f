package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/John-Robertt/IMDbScraper/internal/infra/cache"
)

// DefaultDelay 是每次网络抓取之后固定的礼貌间隔。
const DefaultDelay = 2 * time.Second

var tracer = otel.Tracer("imdbscraper/fetch")

// Fetcher 负责“单次 GET + 固定间隔”的抓取策略。
//
// 约束：
// - 不重试、不退避：失败即返回错误，由调用方记录并跳过该 URL
// - 每次网络抓取之后都 sleep Delay（无论成功失败）；sleep 可被 ctx 打断
// - 缓存命中（--offline）不打网络，也不 sleep
type Fetcher struct {
	Client *resty.Client
	Delay  time.Duration

	// Cache 非 nil 时：Offline=true 只读缓存；否则每次成功抓取后写回。
	Cache   *cache.Store
	Offline bool

	sleep func(ctx context.Context, d time.Duration)
}

func New(c *resty.Client, delay time.Duration) *Fetcher {
	if delay < 0 {
		delay = 0
	}
	return &Fetcher{Client: c, Delay: delay, sleep: sleepCtx}
}

// Get 抓取 pageURL 并返回响应体。
func (f *Fetcher) Get(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "fetch.Get")
	defer span.End()
	span.SetAttributes(attribute.String("url.full", pageURL), attribute.Bool("offline", f.Offline))

	if f.Offline {
		b, err := f.fromCache(pageURL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cache read failed")
			slog.WarnContext(ctx, "离线读取失败", "url", pageURL, "err", err)
		}
		return b, err
	}

	body, err := f.get(ctx, pageURL)
	f.wait(ctx)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		slog.WarnContext(ctx, "抓取失败", "url", pageURL, "err", err)
		return nil, err
	}

	if f.Cache != nil && !f.Cache.ReadOnly {
		if werr := f.Cache.WritePage(pageURL, body); werr != nil {
			slog.WarnContext(ctx, "写入页面缓存失败", "url", pageURL, "err", werr)
		}
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, pageURL string) ([]byte, error) {
	if f.Client == nil {
		return nil, fmt.Errorf("http client 不能为空")
	}
	res, err := f.Client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", pageURL, err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return nil, &HTTPStatusError{URL: pageURL, StatusCode: res.StatusCode(), Location: res.Header().Get("Location")}
	}
	body := res.Body()
	if reason := challengeReason(res.StatusCode(), res.Header(), body); reason != "" {
		return nil, &BlockedError{URL: pageURL, Reason: reason}
	}
	return body, nil
}

func (f *Fetcher) fromCache(pageURL string) ([]byte, error) {
	if f.Cache == nil {
		return nil, fmt.Errorf("offline 模式需要 cache_dir")
	}
	b, ok, err := f.Cache.ReadPage(pageURL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", pageURL, ErrCacheMiss)
	}
	return b, nil
}

func (f *Fetcher) wait(ctx context.Context) {
	if f.Delay <= 0 {
		return
	}
	s := f.sleep
	if s == nil {
		s = sleepCtx
	}
	s(ctx, f.Delay)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// challengeReason 识别 IMDb 前置的 AWS WAF 挑战页：HTTP 202 + 空壳页面，内容需要浏览器执行 JS 才能拿到。
func challengeReason(status int, h http.Header, body []byte) string {
	if strings.EqualFold(strings.TrimSpace(h.Get("X-Amzn-Waf-Action")), "challenge") {
		return "aws-waf"
	}
	if status == http.StatusAccepted && bytes.Contains(body, []byte("AwsWafIntegration")) {
		return "aws-waf"
	}
	return ""
}
