package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewBaseTransport_ProxyDisablesKeepAlive(t *testing.T) {
	tr, err := newBaseTransport("http://127.0.0.1:8080", DefaultTimeout)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if tr.Proxy == nil {
		t.Fatalf("期望启用代理，但 Proxy=nil")
	}
	if !tr.DisableKeepAlives {
		t.Fatalf("期望禁用 keep-alive，但 DisableKeepAlives=false")
	}
}

func TestNewBaseTransport_NoProxyKeepsDefault(t *testing.T) {
	tr, err := newBaseTransport("  ", DefaultTimeout)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if tr.Proxy != nil {
		t.Fatalf("不期望启用代理，但 Proxy!=nil")
	}
	if tr.DisableKeepAlives {
		t.Fatalf("不期望禁用 keep-alive")
	}
}

func TestNewClient_InvalidProxyURL(t *testing.T) {
	if _, err := NewClient(Options{ProxyURL: "http://[::1"}); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got := c.GetClient().Timeout; got != DefaultTimeout {
		t.Fatalf("期望 timeout=%s，实际=%s", DefaultTimeout, got)
	}

	c2, err := NewClient(Options{Timeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got := c2.GetClient().Timeout; got != 3*time.Second {
		t.Fatalf("期望 timeout=3s，实际=%s", got)
	}
}

func TestNewClient_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("<html/>"))
	}))
	defer srv.Close()

	c, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	res, err := c.R().Get(srv.URL)
	if err != nil {
		t.Fatalf("请求失败：%v", err)
	}
	if res.StatusCode() != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", res.StatusCode())
	}

	if got.Get("Accept-Language") != BrowserHeaders["Accept-Language"] {
		t.Fatalf("Accept-Language 不符合预期：%q", got.Get("Accept-Language"))
	}
	if got.Get("Sec-Fetch-Mode") != "navigate" {
		t.Fatalf("Sec-Fetch-Mode 不符合预期：%q", got.Get("Sec-Fetch-Mode"))
	}
	if got.Get("User-Agent") == "" {
		t.Fatalf("User-Agent 不应为空")
	}
}
