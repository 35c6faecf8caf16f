package domain

import "strings"

// Columns 是 CSV 表头与 JSON key 的固定顺序（七列，不随记录变化）。
var Columns = []string{"title", "year", "rating", "category", "description", "url", "image_url"}

// MovieRecord 是从单个详情页抽取出的电影记录。
//
// 约束：
// - 空串即“缺失”；除 URL 外任何字段都允许缺失
// - URL 是唯一标识（详情页的绝对地址），总是被设置
// - 记录只在一次页面抓取中创建，之后不再修改
type MovieRecord struct {
	Title       string
	Year        string // 4 位数字文本，例如 "1994"
	Rating      string // 十进制文本，例如 "9.3"
	Category    string // 逗号 + 空格拼接的类型列表，例如 "Crime, Drama"
	Description string
	URL         string
	ImageURL    string
}

// Admitted 表示该记录可以进入结果集（title 与 rating 都非空）。
func (m MovieRecord) Admitted() bool {
	return strings.TrimSpace(m.Title) != "" && strings.TrimSpace(m.Rating) != ""
}

// Values 按 Columns 的顺序返回字段值（缺失字段为空串）。
func (m MovieRecord) Values() []string {
	return []string{m.Title, m.Year, m.Rating, m.Category, m.Description, m.URL, m.ImageURL}
}

// FromValues 是 Values 的逆操作；values 长度不足时缺失的列视为空。
func FromValues(values []string) MovieRecord {
	get := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	return MovieRecord{
		Title:       get(0),
		Year:        get(1),
		Rating:      get(2),
		Category:    get(3),
		Description: get(4),
		URL:         get(5),
		ImageURL:    get(6),
	}
}

// TitleID 从详情页 URL 中取出 IMDb 的 tt 编号（例如 tt0111161）；取不到返回空串。
func (m MovieRecord) TitleID() string {
	return TitleIDFromURL(m.URL)
}

// TitleIDFromURL 从任意包含 /title/ttNNN 的地址中取出 tt 编号。
func TitleIDFromURL(u string) string {
	i := strings.Index(u, "/title/tt")
	if i < 0 {
		return ""
	}
	s := u[i+len("/title/"):]
	n := 2
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 2 {
		return ""
	}
	return s[:n]
}
