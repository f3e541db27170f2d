package middleware

import (
	"time"

	applogger "Astrolabe/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging writes one structured line per request. Successful requests
// log at debug, client errors at info and server errors at warn.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			if l == nil {
				return nil
			}

			req := c.Request()
			res := c.Response()
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeLabel(c)),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote_ip", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Int64("bytes", res.Size),
				applogger.Duration("duration_ms", time.Since(start)),
			}
			if cs := res.Header().Get(HeaderCacheStatus); cs != "" {
				fields = append(fields, applogger.String("cache", cs))
			}

			switch {
			case res.Status >= 500:
				l.Warn("http request", fields...)
			case res.Status >= 400:
				l.Info("http request", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
