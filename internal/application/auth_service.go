package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
	repo "github.com/rolecatalog/rbac-engine/internal/domain/repository"
	"github.com/rolecatalog/rbac-engine/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService owns login/refresh and the Redis-backed session from
// which the auth middleware hydrates the acting principal.
type AuthService struct {
	Users       repo.UserRepository
	Permissions repo.PermissionRepository
	JWT         *helpers.JWTManager
	Redis       *redis.Client
	Logger      *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type LoginResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	RoleID string `json:"role_id"`
}

func NewAuthService(users repo.UserRepository, perms repo.PermissionRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, Permissions: perms, JWT: jwt, Redis: rdb, Logger: logger}
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Authenticate validates email/password and returns the user without
// issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"role_id":    u.RoleID,
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	resp := &LoginResponse{UserID: u.ID, Email: u.Email, Name: u.Name, RoleID: u.RoleID}
	return resp, pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	// Validate current session id matches the token's sid
	if s.Redis != nil {
		key := sessionKey(u.ID)
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	// Rotate session id and tokens
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		_, _ = pipe.Exec(ctx)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, u.ID, nil
}

// Logout drops the user's session; issued tokens die with it.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, sessionKey(userID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
	}
}

// BuildActor hydrates the request actor from the principal's user row,
// their own role and that role's effective permission slugs. The
// permission set comes from a fresh query so capability revocations
// take effect on the next request.
func (s *AuthService) BuildActor(ctx context.Context, userID string) (Actor, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return Actor{}, ErrUserNotFound
	}
	r, err := s.Users.RoleOf(ctx, u.ID)
	if err != nil {
		return Actor{}, ErrUserNotFound
	}

	perms, err := s.Permissions.FindByRole(ctx, r.ID)
	if err != nil {
		return Actor{}, err
	}
	slugs := make([]string, 0, len(perms))
	if r.Status == entity.RoleStatusActive && r.DeletedAt == nil {
		for _, p := range perms {
			slugs = append(slugs, p.Slug)
		}
	}

	companyID := ""
	if u.CompanyID != nil {
		companyID = *u.CompanyID
	}
	return Actor{
		UserID:      u.ID,
		Email:       u.Email,
		Role:        r,
		CompanyID:   companyID,
		Permissions: slugs,
	}, nil
}
