package nfo

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
	"github.com/John-Robertt/IMDbScraper/internal/infra/fsx"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FileName 返回记录对应的 NFO 文件名：优先使用 tt 编号，否则用净化后的标题。
func FileName(rec domain.MovieRecord) string {
	if id := rec.TitleID(); id != "" {
		return id + ".nfo"
	}
	s := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(rec.Title), "_"), "._")
	if s == "" {
		s = "movie"
	}
	return s + ".nfo"
}

// WriteDir 为每条记录在 dir 下原子写出一个 NFO，返回写出的路径（与 recs 同序）。
// 同名文件会被覆盖。
func WriteDir(dir string, recs []domain.MovieRecord) ([]string, error) {
	paths := make([]string, 0, len(recs))
	for _, rec := range recs {
		b, err := Encode(rec)
		if err != nil {
			return paths, fmt.Errorf("生成 NFO 失败（%s）：%w", rec.URL, err)
		}
		p := filepath.Join(dir, FileName(rec))
		if err := fsx.WriteFileAtomic(p, b); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
