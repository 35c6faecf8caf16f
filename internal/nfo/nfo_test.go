package nfo

import (
	"bytes"
	"encoding/xml"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/IMDbScraper/internal/domain"
)

type movieOut struct {
	Title   string   `xml:"title"`
	Year    int      `xml:"year"`
	Plot    string   `xml:"plot"`
	Genres  []string `xml:"genre"`
	Website string   `xml:"website"`
	Ratings struct {
		Rating []struct {
			Name  string `xml:"name,attr"`
			Max   int    `xml:"max,attr"`
			Value string `xml:"value"`
		} `xml:"rating"`
	} `xml:"ratings"`
	UniqueID struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"uniqueid"`
	Thumb struct {
		Aspect string `xml:"aspect,attr"`
		Value  string `xml:",chardata"`
	} `xml:"thumb"`
}

func TestEncode_XMLRoundTrip(t *testing.T) {
	rec := domain.MovieRecord{
		Title:       "The Shawshank Redemption",
		Year:        "1994",
		Rating:      "9.3",
		Category:    "Drama, Crime, Drama",
		Description: "Two imprisoned men bond.",
		URL:         "https://www.imdb.com/title/tt0111161/",
		ImageURL:    "https://m.media-amazon.com/images/M/p.jpg",
	}

	b, err := Encode(rec)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !bytes.HasPrefix(b, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>`)) {
		t.Fatalf("缺少 XML 头：%s", string(b[:60]))
	}

	var out movieOut
	if err := xml.Unmarshal(b, &out); err != nil {
		t.Fatalf("xml.Unmarshal 失败：%v\n%s", err, string(b))
	}
	if out.Title != rec.Title || out.Year != 1994 || out.Plot != rec.Description || out.Website != rec.URL {
		t.Fatalf("基础字段不一致：%+v", out)
	}
	if diff := cmp.Diff([]string{"Drama", "Crime"}, out.Genres); diff != "" {
		t.Fatalf("genre 不符合预期 (-want +got):\n%s", diff)
	}
	if len(out.Ratings.Rating) != 1 || out.Ratings.Rating[0].Value != "9.3" || out.Ratings.Rating[0].Max != 10 {
		t.Fatalf("rating 不符合预期：%+v", out.Ratings)
	}
	if out.UniqueID.Type != "imdb" || out.UniqueID.Value != "tt0111161" {
		t.Fatalf("uniqueid 不符合预期：%+v", out.UniqueID)
	}
	if out.Thumb.Aspect != "poster" || out.Thumb.Value != rec.ImageURL {
		t.Fatalf("thumb 不符合预期：%+v", out.Thumb)
	}
}

func TestEncode_OmitsAbsentFields(t *testing.T) {
	b, err := Encode(domain.MovieRecord{Title: "Example Movie", Rating: "8.1", Year: "n/a"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	for _, tag := range []string{"<year>", "<plot>", "<genre>", "<thumb", "<uniqueid", "<website>"} {
		if bytes.Contains(b, []byte(tag)) {
			t.Fatalf("缺失字段不应输出 %s：\n%s", tag, string(b))
		}
	}
	if !bytes.Contains(b, []byte("<title>Example Movie</title>")) {
		t.Fatalf("title 必须输出：\n%s", string(b))
	}
}
