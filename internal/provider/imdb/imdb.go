package imdb

import (
	"bytes"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
	"github.com/John-Robertt/IMDbScraper/internal/provider"
)

// DefaultBaseURL 是站点根地址；BaseURL 为空时使用它。
const DefaultBaseURL = "https://www.imdb.com"

// chartPaths 是固定的三个榜单：Top 250、热度榜、票房榜。
var chartPaths = []string{
	"/chart/top/",
	"/chart/moviemeter/",
	"/chart/boxoffice/",
}

var _ provider.Provider = Provider{}

// Provider 实现 IMDb 榜单页与详情页的解析。
//
// 约束：
// - Parse* 是纯函数（只依赖输入 html + pageURL）
// - 任何字段规则匹配不到都只留空，不影响其他字段
type Provider struct {
	// BaseURL 只用于把榜单入口指到测试服务器；正常运行保持为空。
	BaseURL string
}

func (Provider) Name() string { return "imdb" }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

func (p Provider) ListingURLs() []string {
	base := p.baseURL()
	out := make([]string, 0, len(chartPaths))
	for _, cp := range chartPaths {
		out = append(out, base+cp)
	}
	return out
}

var detailPathRE = regexp.MustCompile(`^/title/(tt\d+)`)

// ParseListing 扫描所有超链接，保留指向详情页（/title/ttNNN）的链接。
//
// 规则：
// - 相对地址按 pageURL 解析为绝对地址
// - 丢弃 query/fragment 与 /title/ttNNN 之后的子路径，统一成 <scheme>://<host>/title/ttNNN/
// - 去重，保持首次出现的顺序
func (Provider) ParseListing(body []byte, pageURL string) (provider.Listing, error) {
	base, doc, err := prepare(body, pageURL)
	if err != nil {
		return provider.Listing{}, err
	}

	seen := make(map[string]struct{})
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u := canonicalDetailURL(base, href)
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	})

	next := ""
	if href, ok := doc.Find("a.next-page").First().Attr("href"); ok {
		next = resolveURL(base, href)
	}

	return provider.Listing{DetailURLs: out, NextURL: next}, nil
}

func canonicalDetailURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	m := detailPathRE.FindStringSubmatch(abs.Path)
	if m == nil {
		return ""
	}
	return abs.Scheme + "://" + abs.Host + "/title/" + m[1] + "/"
}

const (
	yearSel      = `span[data-testid="hero-title-block__year"]`
	ratingSel    = `[data-testid="hero-rating-bar__aggregate-rating__score"]`
	genresSel    = `[data-testid="genres"] a`
	plotSel      = `[data-testid="plot-xl"]`
	posterImgSel = `img[data-testid="hero-media__poster"]`
	posterBoxSel = `[data-testid="hero-media__poster"] img`
	legacyPoster = `div.poster img`
)

var (
	genreHrefRE = regexp.MustCompile(`/search/title/?\?genres=`)
	// 兜底年份：全文第一个 “(四位数字)”。可能误中页面里无关的括号数字（例如评论日期），这里保持原样。
	parenYearRE = regexp.MustCompile(`\((\d{4})\)`)
)

// ParseDetail 从详情页抽取 MovieRecord。
func (Provider) ParseDetail(body []byte, pageURL string) (domain.MovieRecord, error) {
	base, doc, err := prepare(body, pageURL)
	if err != nil {
		return domain.MovieRecord{}, err
	}

	rec := domain.MovieRecord{
		Title:       normSpace(doc.Find("h1").First().Text()),
		Year:        extractYear(doc),
		Rating:      extractRating(doc),
		Category:    strings.Join(extractGenres(doc), ", "),
		Description: normSpace(doc.Find(plotSel).First().Text()),
		URL:         strings.TrimSpace(pageURL),
		ImageURL:    extractPoster(doc, base),
	}

	return rec, nil
}

func extractYear(doc *goquery.Document) string {
	if sel := doc.Find(yearSel).First(); sel.Length() > 0 {
		return normSpace(sel.Text())
	}
	if len(doc.Nodes) == 0 {
		return ""
	}
	m := parenYearRE.FindStringSubmatch(nodeText(doc.Nodes[0]))
	if m == nil {
		return ""
	}
	return m[1]
}

func extractRating(doc *goquery.Document) string {
	s := normSpace(doc.Find(ratingSel).First().Text())
	// 新版页面把刻度也放在同一元素里：“8.1/10” => “8.1”。
	if i := strings.Index(s, "/"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

func extractGenres(doc *goquery.Document) []string {
	var genres []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if genreHrefRE.MatchString(href) {
			genres = append(genres, s.Text())
		}
	})
	if len(genres) == 0 {
		doc.Find(genresSel).Each(func(_ int, s *goquery.Selection) {
			genres = append(genres, s.Text())
		})
	}
	return normList(genres)
}

func extractPoster(doc *goquery.Document, base *url.URL) string {
	for _, sel := range []string{posterImgSel, posterBoxSel, legacyPoster} {
		if src, ok := doc.Find(sel).First().Attr("src"); ok && strings.TrimSpace(src) != "" {
			return resolveURL(base, src)
		}
	}
	return ""
}

func prepare(body []byte, pageURL string) (*url.URL, *goquery.Document, error) {
	if len(body) == 0 {
		return nil, nil, errors.New("html 为空")
	}
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, nil, errors.New("pageURL 不能为空")
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, err
	}
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	return base, goquery.NewDocumentFromNode(root), nil
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// nodeText 拼接节点下所有文本节点（包含 script/style，与浏览器 innerText 不同）。
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func normList(in []string) []string {
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = normSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
