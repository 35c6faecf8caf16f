package run

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/IMDbScraper/internal/config"
	"github.com/John-Robertt/IMDbScraper/internal/export"
	"github.com/John-Robertt/IMDbScraper/internal/fetch"
	"github.com/John-Robertt/IMDbScraper/internal/infra/httpx"
	"github.com/John-Robertt/IMDbScraper/internal/provider/imdb"
)

const (
	e2eChartTop = `<html><body>
<a href="/title/tt0000001/?ref_=chttp_t_1">One</a>
<a href="/title/tt0000002/?ref_=chttp_t_2">Two</a>
</body></html>`
	e2eChartBoxOffice = `<html><body>
<a href="/title/tt0000002/">Two again</a>
<a href="/title/tt0000003/">Three</a>
</body></html>`
	e2eDetailOne = `<html><body>
<h1>Example Movie</h1>
<div data-testid="hero-rating-bar__aggregate-rating__score"><span>8.1</span><span>/10</span></div>
</body></html>`
	e2eDetailNoRating = `<html><body><h1>Upcoming</h1></body></html>`
)

func TestE2E_HTTPServerToFiles(t *testing.T) {
	mux := http.NewServeMux()
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/chart/top/", page(e2eChartTop))
	mux.HandleFunc("/chart/moviemeter/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/chart/boxoffice/", page(e2eChartBoxOffice))
	mux.HandleFunc("/title/tt0000001/", page(e2eDetailOne))
	mux.HandleFunc("/title/tt0000002/", page(e2eDetailNoRating))
	// tt0000003 未注册 => 404
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := httpx.NewClient(httpx.Options{})
	require.NoError(t, err)
	f := fetch.New(c, 0)

	dir := t.TempDir()
	eff := config.EffectiveConfig{
		MaxMovies:  20,
		CSVPath:    filepath.Join(dir, "out.csv"),
		JSONPath:   filepath.Join(dir, "out.json"),
		ReportPath: filepath.Join(dir, "report.json"),
	}

	res := Execute(context.Background(), eff, imdb.Provider{BaseURL: srv.URL}, f)
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	require.Equal(t, "Example Movie", rec.Title)
	require.Equal(t, "8.1", rec.Rating)
	require.Equal(t, srv.URL+"/title/tt0000001/", rec.URL)
	require.Empty(t, rec.Category)
	require.Empty(t, rec.Description)
	require.Empty(t, rec.ImageURL)

	s := res.Report.Summary
	require.Equal(t, 3, s.Listings)
	require.Equal(t, 1, s.ListingsFailed)
	require.Equal(t, 3, s.DetailURLs)
	require.Equal(t, 1, s.Admitted)
	require.Equal(t, 1, s.Dropped)
	require.Equal(t, 1, s.Failed)

	_, err = Persist(eff, res)
	require.NoError(t, err)

	fromCSV, err := export.ReadCSV(eff.CSVPath)
	require.NoError(t, err)
	require.Equal(t, res.Records, fromCSV)

	b, err := os.ReadFile(eff.JSONPath)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Len(t, raw, 1)
	require.Len(t, raw[0], 7)
	require.Nil(t, raw[0]["image_url"])

	rb, err := os.ReadFile(eff.ReportPath)
	require.NoError(t, err)
	require.Contains(t, string(rb), `"admitted": 1`)
}
