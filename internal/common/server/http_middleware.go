package server

import (
	"time"

	"github.com/CabPortal/CabPortal/internal/common/logger"
	"github.com/labstack/echo/v4"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// AccessLogMiddleware 记录每个 HTTP 请求的耗时/状态码。
func AccessLogMiddleware(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			cost := time.Since(start)

			if log != nil {
				fields := map[string]interface{}{
					"method": c.Request().Method,
					"path":   c.Request().URL.Path,
					"status": c.Response().Status,
					"cost":   cost.String(),
				}
				if err != nil {
					fields["error"] = err.Error()
					log.WithFields(fields).Warn("http request failed")
				} else {
					log.WithFields(fields).Info("http request ok")
				}
			}
			return err
		}
	}
}

// TracingMiddleware 为每个 HTTP 请求创建 server span，尝试衔接上游 trace。
func TracingMiddleware(serviceName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tracer := opentracing.GlobalTracer()
			req := c.Request()

			var span opentracing.Span
			operation := req.Method + " " + c.Path()
			if parent, err := tracer.Extract(opentracing.HTTPHeaders,
				opentracing.HTTPHeadersCarrier(req.Header)); err == nil {
				span = tracer.StartSpan(operation, ext.RPCServerOption(parent))
			} else {
				span = tracer.StartSpan(operation)
			}
			defer span.Finish()

			ext.SpanKindRPCServer.Set(span)
			ext.HTTPMethod.Set(span, req.Method)
			ext.HTTPUrl.Set(span, req.URL.Path)
			if serviceName != "" {
				span.SetTag("service", serviceName)
			}

			c.SetRequest(req.WithContext(opentracing.ContextWithSpan(req.Context(), span)))
			err := next(c)
			ext.HTTPStatusCode.Set(span, uint16(c.Response().Status))
			if err != nil {
				ext.Error.Set(span, true)
			}
			return err
		}
	}
}
