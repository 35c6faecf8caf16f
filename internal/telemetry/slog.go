package telemetry

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger 返回写到 w 的彩色 slog logger；verbose 时输出 Debug 级别。
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// InitSlog 设置全局默认 logger。
func InitSlog(w io.Writer, verbose bool) {
	slog.SetDefault(NewLogger(w, verbose))
}
