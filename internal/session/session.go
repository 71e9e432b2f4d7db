package session

import "time"

// Session 表示一次门户会话，作为显式参数传给核心调用，
// 不放进程级全局状态（原始实现把登录用户放在环境态里，这里重构掉）。
// 零值即匿名会话。
type Session struct {
	username  string
	expiresAt time.Time
}

// Anonymous 匿名会话。
var Anonymous = Session{}

// NewSession 构造已认证会话；仅在 Authenticate 成功后由 Manager 签发。
func NewSession(username string, expiresAt time.Time) Session {
	return Session{username: username, expiresAt: expiresAt}
}

// Authenticated 会话是否已认证且未过期。
func (s Session) Authenticated() bool {
	if s.username == "" {
		return false
	}
	return s.expiresAt.IsZero() || time.Now().Before(s.expiresAt)
}

// Username 返回已认证用户名；匿名会话返回空串。
func (s Session) Username() string {
	if !s.Authenticated() {
		return ""
	}
	return s.username
}

// ExpiresAt 会话过期时间。
func (s Session) ExpiresAt() time.Time {
	return s.expiresAt
}
