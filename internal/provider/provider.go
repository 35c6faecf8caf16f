package provider

import (
	"context"
	"fmt"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
)

// Listing 是一个榜单页解析出的结果。
type Listing struct {
	// DetailURLs：绝对地址、已去重、保持页面中首次出现的顺序。
	DetailURLs []string
	// NextURL：下一页的绝对地址；没有则为空。
	NextURL string
}

// Provider 把“站点结构”限制在 provider 包内部；run 只依赖统一接口与稳定的 MovieRecord。
//
// 约束：
// - Parse* 必须是纯函数：相同输入 => 相同输出
// - ParseDetail 对缺失字段只留空，不返回错误；只有输入本身不可用时才报错
type Provider interface {
	Name() string
	// ListingURLs 返回固定的榜单入口（不对外开放配置）。
	ListingURLs() []string
	ParseListing(html []byte, pageURL string) (Listing, error)
	ParseDetail(html []byte, pageURL string) (domain.MovieRecord, error)
}

// Fetcher 是 provider 对网络层的唯一依赖（由 fetch.Fetcher 实现）。
type Fetcher interface {
	Get(ctx context.Context, pageURL string) ([]byte, error)
}

// Error 是 provider 阶段的可追溯错误。
// 上层据此把失败归类为 fetch_failed / parse_failed。
type Error struct {
	URL   string
	Stage string // "fetch" 或 "parse"
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stage=%s url=%s: %v", e.Stage, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	StageFetch = "fetch"
	StageParse = "parse"
)
