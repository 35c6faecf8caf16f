package httpx

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type requestIDKey struct{}

// Instrument 给会话挂上请求级 debug 日志与 span。
// 未配置 OTLP 时全局 TracerProvider 是 no-op。
func Instrument(c *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)
	var counter uint64

	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, span := tracer.Start(req.Context(), "http "+req.Method)
		span.SetAttributes(attribute.String("url.full", req.URL))

		id := strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
		ctx = context.WithValue(ctx, requestIDKey{}, id)
		slog.DebugContext(ctx, "start request", "method", req.Method, "url", req.URL, "request_id", id)

		req.SetContext(ctx)
		return nil
	})

	c.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		ctx := res.Request.Context()
		span := trace.SpanFromContext(ctx)
		defer span.End()

		span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode()))
		if res.IsError() {
			span.SetStatus(codes.Error, res.Status())
		}
		slog.DebugContext(ctx, "request done",
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"bytes", len(res.Body()),
			"elapsed", res.Time(),
			"request_id", requestID(ctx),
		)
		return nil
	})

	c.OnError(func(req *resty.Request, err error) {
		ctx := req.Context()
		span := trace.SpanFromContext(ctx)
		defer span.End()

		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		slog.DebugContext(ctx, "request failed", "url", req.URL, "err", err, "request_id", requestID(ctx))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
