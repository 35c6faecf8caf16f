package export

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
	"github.com/John-Robertt/IMDbScraper/internal/infra/fsx"
)

// jsonRecord 的字段顺序即输出 key 的顺序（与 domain.Columns 一致）。
// 缺失字段为 nil，序列化为 null。
type jsonRecord struct {
	Title       *string `json:"title"`
	Year        *string `json:"year"`
	Rating      *string `json:"rating"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	ImageURL    *string `json:"image_url"`
}

func toJSONRecord(r domain.MovieRecord) jsonRecord {
	return jsonRecord{
		Title:       strPtr(r.Title),
		Year:        strPtr(r.Year),
		Rating:      strPtr(r.Rating),
		Category:    strPtr(r.Category),
		Description: strPtr(r.Description),
		URL:         strPtr(r.URL),
		ImageURL:    strPtr(r.ImageURL),
	}
}

func (j jsonRecord) record() domain.MovieRecord {
	return domain.MovieRecord{
		Title:       deref(j.Title),
		Year:        deref(j.Year),
		Rating:      deref(j.Rating),
		Category:    deref(j.Category),
		Description: deref(j.Description),
		URL:         deref(j.URL),
		ImageURL:    deref(j.ImageURL),
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// WriteJSON 原子写出 JSON 数组：2 空格缩进，非 ASCII 原样保留，不做 HTML 转义。
func WriteJSON(path string, recs []domain.MovieRecord) error {
	b, err := EncodeJSON(recs)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(path, b)
}

func EncodeJSON(recs []domain.MovieRecord) ([]byte, error) {
	items := make([]jsonRecord, 0, len(recs))
	for _, r := range recs {
		items = append(items, toJSONRecord(r))
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ReadJSON(path string) ([]domain.MovieRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeJSON(f)
}

func DecodeJSON(r io.Reader) ([]domain.MovieRecord, error) {
	var items []jsonRecord
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, err
	}
	out := make([]domain.MovieRecord, 0, len(items))
	for _, it := range items {
		out = append(out, it.record())
	}
	return out, nil
}
