package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/John-Robertt/IMDbScraper/internal/app/run"
	"github.com/John-Robertt/IMDbScraper/internal/config"
	"github.com/John-Robertt/IMDbScraper/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 把 run 的事件渲染成逐行的人类可读进度（写到 stdout；日志走 stderr）。
type progressUI struct {
	w io.Writer

	startedAt time.Time
	ok        int
	dropped   int
	fail      int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig, listingURLs []string) {
	p.startedAt = time.Now()

	fmt.Fprintf(p.w, "[%s] imdbscraper run\n", p.startedAt.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	if eff.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigFile)
	}
	fmt.Fprintf(p.w, "  max: %d\n", eff.MaxMovies)
	fmt.Fprintf(p.w, "  delay: %s\n", eff.Delay)
	fmt.Fprintf(p.w, "  timeout: %s\n", eff.Timeout)
	fmt.Fprintf(p.w, "  follow_next: %s\n", onOff(eff.FollowNext))
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	if eff.CacheDir != "" {
		fmt.Fprintf(p.w, "  cache: %s (offline=%s)\n", eff.CacheDir, onOff(eff.Offline))
	}
	fmt.Fprintf(p.w, "  charts: %d\n", len(listingURLs))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnListingDone(res domain.ItemResult, dur time.Duration) {
	if res.Status == domain.StatusFailed {
		fmt.Fprintf(p.w, "✗ 榜单不可用：%s（%s）(%s)\n", res.URL, truncate(res.ErrorMsg, 120), formatShortDuration(dur))
		return
	}
	fmt.Fprintf(p.w, "榜单：%s found=%d (%s)\n", res.URL, res.Found, formatShortDuration(dur))
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	switch name {
	case "listing":
		fmt.Fprintf(p.w, "链接发现：pages=%d found=%d detail_urls=%d (%s)\n\n",
			intField(fields, "pages"), intField(fields, "found"), intField(fields, "detail_urls"), formatShortDuration(dur),
		)
	case "detail":
		fmt.Fprintf(p.w, "详情抓取：admitted=%d/%d ok=%d dropped=%d failed=%d (%s)\n",
			intField(fields, "admitted"), intField(fields, "total"), p.ok, p.dropped, p.fail, formatElapsed(time.Since(p.startedAt)),
		)
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	switch res.Status {
	case domain.StatusAdmitted:
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d] ✓ 已抓取：%s (%s) (%s)\n", idx, total, res.Title, res.Rating, formatShortDuration(dur))
	case domain.StatusDropped:
		p.dropped++
		name := res.Title
		if name == "" {
			name = res.URL
		}
		fmt.Fprintf(p.w, "[%d/%d] - 已丢弃：%s（%s）(%s)\n", idx, total, name, res.ErrorMsg, formatShortDuration(dur))
	default:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] ✗ 抓取失败：%s %s: %s (%s)\n",
			idx, total, res.URL, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

// truncate 按 rune 截断，避免切坏多字节字符。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
