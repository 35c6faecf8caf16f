package cache

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"

	"github.com/John-Robertt/IMDbScraper/internal/infra/fsx"
)

// Store 提供 <root>/pages/ 下的原始页面缓存读写（按页面 URL 寻址）。
//
// 约束：
// - --offline：只允许读（ReadOnly=true），缺页即视为抓取失败
// - 普通 run：每次抓取成功后覆盖写入，便于离线复现与修选择器
type Store struct {
	Root     string
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// normalizeFlags 让等价 URL（query 顺序、host 大小写、默认端口、fragment）落到同一个缓存文件。
const normalizeFlags = purell.FlagsSafe |
	purell.FlagsUsuallySafeNonGreedy |
	purell.FlagRemoveDirectoryIndex |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery

// PagePath 返回页面缓存的绝对路径：<root>/pages/<host>/<slug>.html。
func (s Store) PagePath(pageURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("页面 URL 缺少 host：%q", pageURL)
	}
	u, err = url.Parse(purell.NormalizeURL(u, normalizeFlags))
	if err != nil {
		return "", err
	}
	host := cleanSegment(u.Host)
	if host == "" {
		return "", fmt.Errorf("页面 URL 缺少 host：%q", pageURL)
	}
	slug := cleanSegment(strings.Trim(u.Path, "/"))
	if slug == "" {
		slug = "index"
	}
	if u.RawQuery != "" {
		slug += "__" + cleanSegment(u.RawQuery)
	}
	return filepath.Join(s.Root, "pages", host, slug+".html"), nil
}

func (s Store) ReadPage(pageURL string) ([]byte, bool, error) {
	path, err := s.PagePath(pageURL)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) WritePage(pageURL string, html []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	path, err := s.PagePath(pageURL)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(path, html)
}

var unsafeRE = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// cleanSegment 把任意 URL 片段压成单个安全文件名（避免路径穿越）。
func cleanSegment(s string) string {
	s = unsafeRE.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	return s
}
