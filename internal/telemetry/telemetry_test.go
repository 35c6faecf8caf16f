package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	tel, err := Setup(context.Background(), "imdbscraper", Config{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if tel.TracerProvider != nil || tel.MeterProvider != nil {
		t.Fatalf("未配置端点时不应创建 provider")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("零值 Shutdown 不应报错：%v", err)
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Debug("隐藏")
	if buf.Len() != 0 {
		t.Fatalf("非 verbose 时不应输出 debug：%q", buf.String())
	}

	NewLogger(&buf, true).Debug("可见", "k", "v")
	if !strings.Contains(buf.String(), "可见") {
		t.Fatalf("verbose 时应输出 debug：%q", buf.String())
	}
}
