package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CabPortal/CabPortal/internal/common/config"
	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid token 无效、过期或已注销。
var ErrTokenInvalid = errors.New("invalid session token")

// Manager 签发与校验 HS256 JWT session token。
// token 的 Subject 即用户名；服务端 TokenStore 里不存在的 token 一律拒绝，
// 因此 Revoke（登出）立即生效。
type Manager struct {
	cfg   config.AuthConfig
	store TokenStore
}

func NewManager(cfg config.AuthConfig, store TokenStore) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{cfg: cfg, store: store}
}

// Issue 为认证成功的用户名签发 session token。
func (m *Manager) Issue(ctx context.Context, username string) (string, Session, error) {
	if m == nil {
		return "", Anonymous, fmt.Errorf("manager not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", Anonymous, fmt.Errorf("username is empty")
	}
	if m.cfg.JWTSecret == "" {
		return "", Anonymous, fmt.Errorf("jwt_secret is empty")
	}

	ttl := time.Duration(m.cfg.TokenTTL()) * time.Minute
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    m.cfg.Issuer,
		Audience:  audience(m.cfg.Audience),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return "", Anonymous, err
	}

	if err := m.store.Save(ctx, signed, username, ttl); err != nil {
		return "", Anonymous, fmt.Errorf("save session token: %w", err)
	}
	return signed, NewSession(username, expiresAt), nil
}

// Verify 校验 token（HS256 签名、exp/nbf、可选 iss/aud）并还原 Session。
func (m *Manager) Verify(ctx context.Context, tokenStr string) (Session, error) {
	if m == nil {
		return Anonymous, fmt.Errorf("manager not initialized")
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return Anonymous, ErrTokenInvalid
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(m.cfg.JWTSecret), nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || parsed == nil || !parsed.Valid {
		return Anonymous, ErrTokenInvalid
	}

	if m.cfg.Issuer != "" && claims.Issuer != m.cfg.Issuer {
		return Anonymous, ErrTokenInvalid
	}
	if m.cfg.Audience != "" && !audienceContains(claims.Audience, m.cfg.Audience) {
		return Anonymous, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return Anonymous, ErrTokenInvalid
	}

	ok, err := m.store.Valid(ctx, tokenStr)
	if err != nil {
		return Anonymous, fmt.Errorf("check session token: %w", err)
	}
	if !ok {
		return Anonymous, ErrTokenInvalid
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return NewSession(claims.Subject, expiresAt), nil
}

// Revoke 注销 token（登出）。
func (m *Manager) Revoke(ctx context.Context, tokenStr string) error {
	if m == nil {
		return fmt.Errorf("manager not initialized")
	}
	return m.store.Delete(ctx, tokenStr)
}

func audience(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

func audienceContains(aud jwt.ClaimStrings, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || len(aud) == 0 {
		return false
	}
	for _, v := range aud {
		if strings.TrimSpace(v) == want {
			return true
		}
	}
	return false
}
