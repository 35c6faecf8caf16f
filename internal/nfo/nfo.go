package nfo

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
)

type movie struct {
	XMLName xml.Name `xml:"movie"`

	Title string `xml:"title"`
	Year  int    `xml:"year,omitempty"`
	Plot  string `xml:"plot,omitempty"`

	Ratings *ratings `xml:"ratings,omitempty"`

	UniqueID *uniqueID `xml:"uniqueid,omitempty"`
	Genres   []string  `xml:"genre,omitempty"`
	Thumb    *thumb    `xml:"thumb,omitempty"`
	Website  string    `xml:"website,omitempty"`
}

type ratings struct {
	Rating []rating `xml:"rating"`
}

type rating struct {
	Name    string `xml:"name,attr"`
	Max     int    `xml:"max,attr"`
	Default bool   `xml:"default,attr"`
	Value   string `xml:"value"`
}

type uniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr"`
	Value   string `xml:",chardata"`
}

type thumb struct {
	Aspect string `xml:"aspect,attr"`
	Value  string `xml:",chardata"`
}

// Encode 把 MovieRecord 转成 Kodi/Jellyfin/Emby 可读取的 NFO（XML）。
//
// 规则：
// - 缺失字段直接省略对应元素；title 总是输出
// - year 不是纯数字时省略（兜底年份规则可能取到脏值）
// - category 按 ", " 拆回多个 <genre>
func Encode(rec domain.MovieRecord) ([]byte, error) {
	m := movie{
		Title:   strings.TrimSpace(rec.Title),
		Plot:    strings.TrimSpace(rec.Description),
		Genres:  splitGenres(rec.Category),
		Website: strings.TrimSpace(rec.URL),
	}
	if y, err := strconv.Atoi(strings.TrimSpace(rec.Year)); err == nil && y > 0 {
		m.Year = y
	}
	if r := strings.TrimSpace(rec.Rating); r != "" {
		m.Ratings = &ratings{Rating: []rating{{Name: "imdb", Max: 10, Default: true, Value: r}}}
	}
	if id := rec.TitleID(); id != "" {
		m.UniqueID = &uniqueID{Type: "imdb", Default: true, Value: id}
	}
	if img := strings.TrimSpace(rec.ImageURL); img != "" {
		m.Thumb = &thumb{Aspect: "poster", Value: img}
	}

	b, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	// 约定：输出带 standalone="yes" 的 XML 头，便于与常见刮削器产物兼容。
	const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"
	return append([]byte(header), b...), nil
}

func splitGenres(category string) []string {
	if strings.TrimSpace(category) == "" {
		return nil
	}
	parts := strings.Split(category, ",")
	m := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
