package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/astrathh/taskify-habitory/internal/auth"
	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/metrics"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// UserService 负责注册、登录与会话事件广播
type UserService struct {
	users store.Users
	hub   *auth.Hub
	now   func() time.Time
}

// NewUserService 构造 UserService；hub 可为 nil
func NewUserService(users store.Users, hub *auth.Hub) *UserService {
	return &UserService{users: users, hub: hub, now: time.Now}
}

// Register 创建账号，密码以 bcrypt 哈希保存
func (s *UserService) Register(ctx context.Context, email, name, password string) (*db.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidField)
	}
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidField, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := db.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.InsertUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.AuthAttempts.WithLabelValues("failure", "register").Inc()
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success", "register").Inc()
	return &user, nil
}

// EnsureUser 若邮箱与密码均非空且账号不存在，则创建；已存在时不做修改
func (s *UserService) EnsureUser(ctx context.Context, email, name, password string) (*db.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, false, fmt.Errorf("%w: email and password are required", ErrInvalidField)
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	user, err := s.Register(ctx, email, name, password)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Authenticate 校验邮箱与密码，成功后广播登录事件
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure", "login").Inc()
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("failure", "login").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("success", "login").Inc()
	s.notify(auth.SignedIn, user.ID)
	return user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(ctx context.Context, id string) (*db.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ChangePassword 校验旧密码后写入新哈希
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if len(strings.TrimSpace(next)) < minPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidField, minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(next)), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdateUser(ctx, id, store.Fields{"password": string(hashed)}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SignOut 广播登出事件
func (s *UserService) SignOut(userID string) {
	if userID == "" {
		return
	}
	s.notify(auth.SignedOut, userID)
}

// SessionFor 将用户转换为会话
func SessionFor(user *db.User) auth.Session {
	return auth.Session{UserID: user.ID, Email: user.Email, Name: user.Name}
}

func (s *UserService) notify(kind auth.EventKind, userID string) {
	if s.hub != nil {
		s.hub.Notify(auth.Event{Kind: kind, UserID: userID})
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
