package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/IMDbScraper/internal/app/run"
	"github.com/John-Robertt/IMDbScraper/internal/config"
	"github.com/John-Robertt/IMDbScraper/internal/domain"
	"github.com/John-Robertt/IMDbScraper/internal/fetch"
	"github.com/John-Robertt/IMDbScraper/internal/infra/cache"
	"github.com/John-Robertt/IMDbScraper/internal/infra/httpx"
	"github.com/John-Robertt/IMDbScraper/internal/provider"
	"github.com/John-Robertt/IMDbScraper/internal/provider/imdb"
	"github.com/John-Robertt/IMDbScraper/internal/telemetry"
)

const serviceName = "imdbscraper"

// sampleSize 是结束时在终端展示的记录条数。
const sampleSize = 3

// newProvider 构造本次 run 使用的 provider；测试会替换它。
var newProvider = func() provider.Provider { return imdb.Provider{} }

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		cli        config.CLIArgs
		delaySec   float64
		timeoutSec float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "抓取三个固定榜单及其详情页，并写出 CSV / JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			cli.Delay = config.Seconds(delaySec)
			cli.Timeout = config.Seconds(timeoutSec)
			cli.DelaySet = f.Changed("delay")
			cli.MaxMoviesSet = f.Changed("max")
			cli.TimeoutSet = f.Changed("timeout")
			cli.CSVSet = f.Changed("csv")
			cli.JSONSet = f.Changed("json")
			cli.FollowNextSet = f.Changed("follow-next")
			cli.ReportPathSet = f.Changed("report")
			cli.NFODirSet = f.Changed("nfo-dir")
			cli.CacheDirSet = f.Changed("cache-dir")
			cli.OfflineSet = f.Changed("offline")

			if code := runScrape(cmd.Context(), cli, stdout, stderr); code != exitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&delaySec, "delay", config.DefaultDelay.Seconds(), "每次网络抓取之后的固定间隔（秒）")
	f.IntVar(&cli.MaxMovies, "max", config.DefaultMaxMovies, "最多抓取的详情页数量")
	f.Float64Var(&timeoutSec, "timeout", config.DefaultTimeout.Seconds(), "单次请求超时（秒）")
	f.StringVar(&cli.CSVPath, "csv", config.DefaultCSVPath, "CSV 输出路径（空串表示不写出）")
	f.StringVar(&cli.JSONPath, "json", config.DefaultJSONPath, "JSON 输出路径（空串表示不写出）")
	f.BoolVar(&cli.FollowNext, "follow-next", false, "每个榜单额外跟随一次 next-page 链接")
	f.StringVar(&cli.ReportPath, "report", "", "写出本次 run 的报告 JSON")
	f.StringVar(&cli.NFODir, "nfo-dir", "", "为每条入选记录写出 <tt编号>.nfo")
	f.StringVar(&cli.CacheDir, "cache-dir", "", "保存抓取到的页面（配合 --offline 回放）")
	f.BoolVar(&cli.Offline, "offline", false, "只从 --cache-dir 读取页面，不访问网络")
	f.StringVar(&cli.ConfigPath, "config", "", "配置文件路径（默认读取 ./"+config.DefaultFileName+"，可选）")
	f.BoolVarP(&cli.Verbose, "verbose", "v", false, "输出 debug 日志")
	return cmd
}

func runScrape(ctx context.Context, cli config.CLIArgs, stdout, stderr io.Writer) (code int) {
	telemetry.InitSlog(stderr, cli.Verbose)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return exitFailed
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailed
	}

	tel, err := telemetry.Setup(ctx, serviceName, telemetry.Config{
		HTTPEndpoint: eff.OTLP.HTTPEndpoint,
		GRPCEndpoint: eff.OTLP.GRPCEndpoint,
		Headers:      eff.OTLP.Headers,
	})
	if err != nil {
		fmt.Fprintf(stderr, "初始化 telemetry 失败：%v\n", err)
		return exitFailed
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			slog.Warn("关闭 telemetry 失败", "err", err)
		}
	}()

	client, err := httpx.NewClient(httpx.Options{Timeout: eff.Timeout, ProxyURL: eff.ProxyURL})
	if err != nil {
		fmt.Fprintf(stderr, "初始化 HTTP 客户端失败：%v\n", err)
		return exitFailed
	}
	fetcher := fetch.New(client, eff.Delay)
	if eff.CacheDir != "" {
		store := cache.New(eff.CacheDir, eff.Offline)
		fetcher.Cache = &store
		fetcher.Offline = eff.Offline
	}

	// 任何未预期的 panic 都按失败处理：记录日志，不落盘。
	defer func() {
		if r := recover(); r != nil {
			slog.Error("运行时异常", "panic", r, "stack", string(debug.Stack()))
			fmt.Fprintf(stderr, "发生未预期错误：%v\n", r)
			code = exitFailed
		}
	}()

	res := run.ExecuteWithObserver(ctx, eff, newProvider(), fetcher, newProgressUI(stdout))

	if res.Report.Interrupted {
		fmt.Fprintf(stdout, "\n已中断：本次已入选 %d 条，未写出任何文件。\n", len(res.Records))
		return exitInterrupted
	}

	written, err := run.Persist(eff, res)
	if err != nil {
		slog.Error("落盘失败", "err", err)
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailed
	}

	emitSummary(stdout, res, written)
	return exitOK
}

func emitSummary(w io.Writer, res run.Result, written run.Written) {
	s := res.Report.Summary
	fmt.Fprintf(w, "\n完成：admitted=%d dropped=%d failed=%d listings_failed=%d\n",
		s.Admitted, s.Dropped, s.Failed, s.ListingsFailed,
	)

	if len(res.Records) == 0 {
		fmt.Fprintln(w, "没有抓取到任何完整记录（title + rating），未写出 CSV / JSON。")
	} else {
		if written.CSV != "" {
			fmt.Fprintf(w, "csv: %s\n", written.CSV)
		}
		if written.JSON != "" {
			fmt.Fprintf(w, "json: %s\n", written.JSON)
		}
		if len(written.NFO) > 0 {
			fmt.Fprintf(w, "nfo: %d 个文件\n", len(written.NFO))
		}
	}
	if written.Report != "" {
		fmt.Fprintf(w, "report: %s\n", written.Report)
	}

	if len(res.Records) > 0 {
		n := min(sampleSize, len(res.Records))
		fmt.Fprintf(w, "\n示例结果（前 %d 条）：\n", n)
		renderSample(w, res.Records[:n])
	}
}

func renderSample(w io.Writer, recs []domain.MovieRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Title", "Year", "Rating", "Category"})
	for i, r := range recs {
		t.AppendRow(table.Row{i + 1, r.Title, orDash(r.Year), r.Rating, orDash(r.Category)})
	}
	t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
