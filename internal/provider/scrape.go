package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
)

// FetchListing 抓取并解析一个榜单页。
func FetchListing(ctx context.Context, p Provider, f Fetcher, pageURL string) (Listing, error) {
	html, err := fetchPage(ctx, p, f, pageURL)
	if err != nil {
		return Listing{}, err
	}
	l, err := p.ParseListing(html, pageURL)
	if err != nil {
		return Listing{}, &Error{URL: pageURL, Stage: StageParse, Err: err}
	}
	return l, nil
}

// FetchDetail 抓取并解析一个详情页。
// 返回的记录 URL 总是 pageURL；是否“入选”由调用方用 Admitted 判断。
func FetchDetail(ctx context.Context, p Provider, f Fetcher, pageURL string) (domain.MovieRecord, error) {
	html, err := fetchPage(ctx, p, f, pageURL)
	if err != nil {
		return domain.MovieRecord{}, err
	}
	rec, err := p.ParseDetail(html, pageURL)
	if err != nil {
		return domain.MovieRecord{}, &Error{URL: pageURL, Stage: StageParse, Err: err}
	}
	rec.URL = pageURL
	return rec, nil
}

func fetchPage(ctx context.Context, p Provider, f Fetcher, pageURL string) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("provider 不能为空")
	}
	if f == nil {
		return nil, fmt.Errorf("fetcher 不能为空")
	}
	if strings.TrimSpace(pageURL) == "" {
		return nil, fmt.Errorf("pageURL 不能为空")
	}
	html, err := f.Get(ctx, pageURL)
	if err != nil {
		return nil, &Error{URL: pageURL, Stage: StageFetch, Err: err}
	}
	return html, nil
}
