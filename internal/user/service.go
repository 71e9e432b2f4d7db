package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrUsernameTaken 用户名已被占用（注册失败，绝不覆盖已有账号）。
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials 登录失败的统一错误：
	// 不区分“用户不存在”与“密码错误”，避免用户名枚举。
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrEmptyCredentials 用户名或口令为空。
	ErrEmptyCredentials = errors.New("username and password required")
)

// Service 封装凭证存储的核心用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

// Register 注册新用户：存储 (username, sha256 摘要)，一行且仅一行。
// 重复用户名（包括并发注册撞上唯一索引的情况）返回 ErrUsernameTaken。
func (s *Service) Register(ctx context.Context, username, password string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}

	// 先查一次给出友好错误；真正的防线是 username 唯一索引
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("register %s: %w", username, err)
	}

	u := &User{
		Username:     username,
		PasswordHash: HashPassword(password),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("register %s: %w", username, err)
	}
	return nil
}

// Authenticate 重新计算口令摘要，按 username + digest 精确匹配。
// 匹配失败一律返回 ErrInvalidCredentials；存储层错误原样上抛。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.FindByCredentials(ctx, username, HashPassword(password))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate %s: %w", username, err)
	}
	return u, nil
}
