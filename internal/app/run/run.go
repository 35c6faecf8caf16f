package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/John-Robertt/IMDbScraper/internal/config"
	"github.com/John-Robertt/IMDbScraper/internal/domain"
	"github.com/John-Robertt/IMDbScraper/internal/fetch"
	"github.com/John-Robertt/IMDbScraper/internal/provider"
)

const instrumentationName = "imdbscraper/run"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)
)

// Result 是一次 run 的产物：入选记录（按抓取顺序）+ 可追溯报告。
type Result struct {
	Records []domain.MovieRecord
	Report  domain.RunReport
}

// Execute 执行一次完整抓取：榜单页（串行）→ 去重/截断 → 详情页（串行）→ 入选判定。
// 单个页面失败只记录为 item 级失败，不影响其他页面；不做任何落盘。
func Execute(ctx context.Context, eff config.EffectiveConfig, p provider.Provider, f provider.Fetcher) Result {
	return ExecuteWithObserver(ctx, eff, p, f, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度（由上层决定是否启用）。
//
// ctx 被取消时在当前页面之后停止，Report.Interrupted=true；已入选的记录仍然返回。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, p provider.Provider, f provider.Fetcher, obs Observer) Result {
	ctx, span := tracer.Start(ctx, "run.Execute")
	defer span.End()

	m := newMetrics()

	listingURLs := p.ListingURLs()
	if obs != nil {
		obs.OnStart(eff, listingURLs)
	}

	res := Result{
		Report: domain.RunReport{
			StartedAt: time.Now().UTC(),
			Items:     make([]domain.ItemResult, 0, len(listingURLs)+eff.MaxMovies),
		},
	}

	// 阶段一：榜单页
	listingStarted := time.Now()
	var collected []string
	for _, u := range listingURLs {
		if ctx.Err() != nil {
			break
		}
		l, ok := runListing(ctx, p, f, u, &res.Report, m, obs)
		if !ok {
			continue
		}
		collected = append(collected, l.DetailURLs...)

		if eff.FollowNext && l.NextURL != "" && l.NextURL != u && ctx.Err() == nil {
			if next, ok := runListing(ctx, p, f, l.NextURL, &res.Report, m, obs); ok {
				collected = append(collected, next.DetailURLs...)
			}
		}
	}

	detailURLs := dedupCap(collected, eff.MaxMovies)
	if obs != nil {
		obs.OnPhaseDone("listing", map[string]any{
			"pages":       countKind(res.Report.Items, domain.KindListing),
			"found":       len(collected),
			"detail_urls": len(detailURLs),
		}, time.Since(listingStarted))
	}

	// 阶段二：详情页
	detailStarted := time.Now()
	for i, u := range detailURLs {
		if ctx.Err() != nil {
			break
		}
		oneStarted := time.Now()
		rec, item, ok := runDetail(ctx, p, f, u)
		if !ok {
			break
		}
		res.Report.Items = append(res.Report.Items, item)
		m.page(ctx, domain.KindDetail, item.Status)
		if item.Status == domain.StatusAdmitted {
			res.Records = append(res.Records, rec)
		}
		if obs != nil {
			obs.OnItemDone(i+1, len(detailURLs), item, time.Since(oneStarted))
		}
	}
	if obs != nil {
		obs.OnPhaseDone("detail", map[string]any{
			"admitted": len(res.Records),
			"total":    len(detailURLs),
		}, time.Since(detailStarted))
	}

	if ctx.Err() != nil {
		res.Report.Interrupted = true
		slog.WarnContext(ctx, "抓取被中断", "admitted", len(res.Records))
	}
	res.Report.FinishedAt = time.Now().UTC()
	res.Report.Finalize()

	span.SetAttributes(
		attribute.Int("detail_urls", len(detailURLs)),
		attribute.Int("admitted", len(res.Records)),
		attribute.Bool("interrupted", res.Report.Interrupted),
	)
	return res
}

// runListing 抓取一个榜单页并把结果记入 report；ok=false 表示该页不可用（或被中断）。
func runListing(ctx context.Context, p provider.Provider, f provider.Fetcher, u string, rr *domain.RunReport, m *metrics, obs Observer) (provider.Listing, bool) {
	started := time.Now()
	l, err := provider.FetchListing(ctx, p, f, u)
	if err != nil && ctx.Err() != nil {
		return provider.Listing{}, false
	}

	item := domain.ItemResult{Kind: domain.KindListing, URL: u, Status: domain.StatusListed}
	if err != nil {
		fillError(&item, err)
		slog.WarnContext(ctx, "榜单页不可用", "url", u, "err", err)
	} else {
		item.Found = len(l.DetailURLs)
		slog.DebugContext(ctx, "榜单页解析完成", "url", u, "found", item.Found, "next", l.NextURL)
	}
	rr.Items = append(rr.Items, item)
	m.page(ctx, domain.KindListing, item.Status)
	if obs != nil {
		obs.OnListingDone(item, time.Since(started))
	}
	return l, err == nil
}

// runDetail 抓取一个详情页并判定是否入选；ok=false 表示被中断（不记录 item）。
func runDetail(ctx context.Context, p provider.Provider, f provider.Fetcher, u string) (domain.MovieRecord, domain.ItemResult, bool) {
	item := domain.ItemResult{Kind: domain.KindDetail, URL: u}

	rec, err := provider.FetchDetail(ctx, p, f, u)
	if err != nil {
		if ctx.Err() != nil {
			return domain.MovieRecord{}, item, false
		}
		fillError(&item, err)
		slog.WarnContext(ctx, "详情页不可用", "url", u, "err", err)
		return domain.MovieRecord{}, item, true
	}

	item.Title = rec.Title
	item.Rating = rec.Rating
	if !rec.Admitted() {
		item.Status = domain.StatusDropped
		item.ErrorCode = domain.ErrCodeIncomplete
		item.ErrorMsg = incompleteMsg(rec)
		slog.InfoContext(ctx, "记录不完整，已丢弃", "url", u, "title", rec.Title, "rating", rec.Rating)
		return rec, item, true
	}
	item.Status = domain.StatusAdmitted
	return rec, item, true
}

func incompleteMsg(rec domain.MovieRecord) string {
	switch {
	case rec.Title == "" && rec.Rating == "":
		return "缺少 title 与 rating"
	case rec.Title == "":
		return "缺少 title"
	default:
		return "缺少 rating（可能尚未上映或评分人数不足）"
	}
}

func fillError(item *domain.ItemResult, err error) {
	item.Status = domain.StatusFailed

	var pe *provider.Error
	if errors.As(err, &pe) {
		switch pe.Stage {
		case provider.StageParse:
			item.ErrorCode = domain.ErrCodeParseFailed
			item.ErrorMsg = fmt.Sprintf("解析失败（站点结构可能变化或返回了非预期页面）：%v", pe.Err)
		default:
			item.ErrorCode = domain.ErrCodeFetchFailed
			item.ErrorMsg = fetch.Describe(pe.Err)
		}
		return
	}

	item.ErrorCode = domain.ErrCodeFetchFailed
	item.ErrorMsg = fetch.Describe(err)
}

// dedupCap 去重（保持首次出现顺序）并截断到 max 条；max<=0 表示不截断。
func dedupCap(urls []string, max int) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

func countKind(items []domain.ItemResult, kind string) int {
	n := 0
	for _, it := range items {
		if it.Kind == kind {
			n++
		}
	}
	return n
}

type metrics struct {
	pages metric.Int64Counter
}

func newMetrics() *metrics {
	pages, err := meter.Int64Counter(
		"imdbscraper.pages",
		metric.WithDescription("按类型与结果统计的页面数"),
	)
	if err != nil {
		slog.Debug("创建 metric 失败", "err", err)
	}
	return &metrics{pages: pages}
}

func (m *metrics) page(ctx context.Context, kind, status string) {
	if m == nil || m.pages == nil {
		return
	}
	m.pages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}
