package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/CabPortal/CabPortal/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	ctxKeySession = "portal.session"
	ctxKeyToken   = "portal.token"
)

// RequireSession 把 `Authorization: Bearer <token>` 换成显式 Session 放进请求上下文；
// 未认证请求在进入任何 Record Store 写入前就被拒绝。
func RequireSession(mgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
				raw = strings.TrimSpace(raw[len("bearer "):])
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, errorBody("login required"))
			}

			sess, err := mgr.Verify(c.Request().Context(), raw)
			if err != nil || !sess.Authenticated() {
				return c.JSON(http.StatusUnauthorized, errorBody("invalid or expired session"))
			}

			c.Set(ctxKeySession, sess)
			c.Set(ctxKeyToken, raw)
			return next(c)
		}
	}
}

// CurrentSession 取出中间件放入的 Session；没有则返回匿名会话。
func CurrentSession(c echo.Context) session.Session {
	if v, ok := c.Get(ctxKeySession).(session.Session); ok {
		return v
	}
	return session.Anonymous
}

func currentToken(c echo.Context) string {
	if v, ok := c.Get(ctxKeyToken).(string); ok {
		return v
	}
	return ""
}

// LoginRateLimiter 登录口的限流（按远端地址）：凭证校验之外单独的加固层，
// 不掺进凭证存储的核心逻辑。
func LoginRateLimiter() echo.MiddlewareFunc {
	cfg := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(1),
				Burst:     5,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusTooManyRequests, errorBody("rate limit exceeded"))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, errorBody("rate limit exceeded"))
		},
	}
	return middleware.RateLimiterWithConfig(cfg)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
