package nfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
)

func TestFileName(t *testing.T) {
	cases := []struct {
		rec  domain.MovieRecord
		want string
	}{
		{domain.MovieRecord{Title: "X", URL: "https://www.imdb.com/title/tt0111161/"}, "tt0111161.nfo"},
		{domain.MovieRecord{Title: "Example Movie"}, "Example_Movie.nfo"},
		{domain.MovieRecord{Title: "../.."}, "movie.nfo"},
	}
	for _, c := range cases {
		if got := FileName(c.rec); got != c.want {
			t.Fatalf("FileName(%q)=%q，期望 %q", c.rec.Title, got, c.want)
		}
	}
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nfo")
	recs := []domain.MovieRecord{
		{Title: "A", Rating: "8.0", URL: "https://www.imdb.com/title/tt0000001/"},
		{Title: "B", Rating: "7.0", URL: "https://www.imdb.com/title/tt0000002/"},
	}
	paths, err := WriteDir(dir, recs)
	if err != nil {
		t.Fatalf("WriteDir 失败：%v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("期望写出 2 个文件，实际 %d", len(paths))
	}
	b, err := os.ReadFile(filepath.Join(dir, "tt0000002.nfo"))
	if err != nil {
		t.Fatalf("读取 NFO 失败：%v", err)
	}
	if !strings.Contains(string(b), "<title>B</title>") {
		t.Fatalf("NFO 内容不符合预期：\n%s", string(b))
	}
}
