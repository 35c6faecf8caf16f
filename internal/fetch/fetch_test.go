package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/IMDbScraper/internal/infra/cache"
)

func newTestFetcher(t *testing.T, delay time.Duration) (*Fetcher, *int) {
	t.Helper()
	sleeps := 0
	f := New(resty.New(), delay)
	f.sleep = func(ctx context.Context, d time.Duration) {
		require.Equal(t, delay, d)
		sleeps++
	}
	return f, &sleeps
}

func TestGet_SuccessSleepsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<h1>ok</h1>"))
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(t, 2*time.Second)
	b, err := f.Get(context.Background(), srv.URL+"/title/tt1/")
	require.NoError(t, err)
	require.Equal(t, "<h1>ok</h1>", string(b))
	require.Equal(t, 1, *sleeps)
}

func TestGet_Non2xxIsErrorAndStillSleeps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(t, time.Second)
	b, err := f.Get(context.Background(), srv.URL)
	require.Nil(t, b)

	var hs *HTTPStatusError
	require.ErrorAs(t, err, &hs)
	require.Equal(t, http.StatusServiceUnavailable, hs.StatusCode)
	require.Equal(t, 1, *sleeps, "失败也必须执行礼貌间隔")
}

func TestGet_NoRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, 0)
	_, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestGet_TransportErrorSleeps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	u := srv.URL
	srv.Close()

	f, sleeps := newTestFetcher(t, time.Second)
	_, err := f.Get(context.Background(), u)
	require.Error(t, err)
	require.Equal(t, 1, *sleeps)
}

func TestGet_WAFChallengeIsBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Amzn-Waf-Action", "challenge")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, 0)
	_, err := f.Get(context.Background(), srv.URL)

	var be *BlockedError
	require.ErrorAs(t, err, &be)
	require.Equal(t, "aws-waf", be.Reason)
	require.Contains(t, Describe(err), "aws-waf")
}

func TestGet_WritesCacheThenOfflineReplay(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("<h1>cached</h1>"))
	}))
	defer srv.Close()

	root := t.TempDir()
	store := cache.New(root, false)

	online, _ := newTestFetcher(t, 0)
	online.Cache = &store
	_, err := online.Get(context.Background(), srv.URL+"/chart/top/")
	require.NoError(t, err)

	ro := cache.New(root, true)
	offline, sleeps := newTestFetcher(t, time.Second)
	offline.Cache = &ro
	offline.Offline = true

	b, err := offline.Get(context.Background(), srv.URL+"/chart/top/")
	require.NoError(t, err)
	require.Equal(t, "<h1>cached</h1>", string(b))
	require.EqualValues(t, 1, atomic.LoadInt32(&hits), "离线模式不应访问网络")
	require.Equal(t, 0, *sleeps, "离线模式不应 sleep")

	_, err = offline.Get(context.Background(), srv.URL+"/chart/moviemeter/")
	require.True(t, errors.Is(err, ErrCacheMiss), "err=%v", err)
}

func TestSleepCtx_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleepCtx(ctx, time.Minute)
	require.Less(t, time.Since(start), time.Second)
}

func TestDescribe(t *testing.T) {
	require.Equal(t, "", Describe(nil))
	require.Contains(t, Describe(&HTTPStatusError{StatusCode: 429}), "限流")
	require.Equal(t, "HTTP 404（页面不存在）", Describe(&HTTPStatusError{StatusCode: 404}))
	require.Equal(t, "HTTP 502", Describe(&HTTPStatusError{StatusCode: 502}))
	require.Equal(t, "离线模式下缓存未命中", Describe(ErrCacheMiss))
}
