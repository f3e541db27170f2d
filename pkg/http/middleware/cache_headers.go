package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	HeaderCacheStatus  = "X-Cache-Status"
	HeaderResponseTime = "X-Response-Time"
)

// CacheControl marks successful responses as publicly cacheable for maxAge.
// Error responses are sent with no-store.
func CacheControl(maxAge time.Duration) echo.MiddlewareFunc {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := c.Response()
			res.Before(func() {
				if res.Status >= 200 && res.Status < 300 && maxAge > 0 {
					res.Header().Set(echo.HeaderCacheControl, value)
				} else {
					res.Header().Set(echo.HeaderCacheControl, "no-store")
				}
			})
			return next(c)
		}
	}
}

// ResponseTime stamps X-Response-Time with the handler's elapsed time in
// milliseconds, just before headers are written.
func ResponseTime() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			res := c.Response()
			res.Before(func() {
				ms := float64(time.Since(start).Microseconds()) / 1000
				res.Header().Set(HeaderResponseTime, fmt.Sprintf("%.3fms", ms))
			})
			return next(c)
		}
	}
}

// SetCacheStatus records whether the payload came from the cache.
func SetCacheStatus(c echo.Context, fromCache bool) {
	status := "MISS"
	if fromCache {
		status = "HIT"
	}
	c.Response().Header().Set(HeaderCacheStatus, status)
}
