package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vehicleoffer_go/config"
	"vehicleoffer_go/models"
	"vehicleoffer_go/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig 认证配置
type AuthConfig struct {
	MaxLoginAttempts   int           // 最大登录失败次数
	LoginBlockDuration time.Duration // 登录封禁时长
}

// DefaultAuthConfig 默认认证配置
var DefaultAuthConfig = AuthConfig{
	MaxLoginAttempts:   5,
	LoginBlockDuration: 15 * time.Minute,
}

// AuthService 认证服务
type AuthService struct {
	profiles   repository.ProfileRepository
	jwtService *config.JWTService
	rdb        *redis.Client
	logger     *zap.Logger
	authConfig AuthConfig
}

// NewAuthService 创建认证服务实例
func NewAuthService(profiles repository.ProfileRepository, jwtService *config.JWTService, rdb *redis.Client, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		profiles:   profiles,
		jwtService: jwtService,
		rdb:        rdb,
		logger:     logger,
		authConfig: DefaultAuthConfig,
	}
}

// SignUpRequest 注册请求
type SignUpRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6,max=100"`
	Role     string `json:"role" binding:"required,role"`
}

// SignInRequest 登录请求
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResult 认证结果
type AuthResult struct {
	Profile *models.Profile `json:"profile"`
	Token   string          `json:"token"`
}

// SignUp 用户注册，角色注册后不可修改
func (as *AuthService) SignUp(ctx context.Context, req *SignUpRequest) (*AuthResult, error) {
	if !models.ValidRole(req.Role) {
		return nil, &ValidationError{Errors: map[string]string{"role": "role must be buyer or seller"}}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &models.Profile{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		PasswordHash: string(hashedPassword),
	}

	if err := as.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	token, err := as.jwtService.GenerateToken(profile.ID, profile.Email, profile.Name, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	as.logger.Info("profile created", zap.String("user_id", profile.ID), zap.String("role", profile.Role))
	return &AuthResult{Profile: profile, Token: token}, nil
}

// SignIn 用户登录
// 同一邮箱+IP 连续失败达到上限后在封禁时长内拒绝
func (as *AuthService) SignIn(ctx context.Context, req *SignInRequest, clientIP string) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	limitKey := fmt.Sprintf("login:limit:%s:%s", email, clientIP)

	if as.rdb != nil {
		attempts, _ := as.rdb.Get(ctx, limitKey).Int64()
		if attempts >= int64(as.authConfig.MaxLoginAttempts) {
			return nil, ErrTooManyAttempts
		}
	}

	profile, err := as.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			as.recordLoginFailure(ctx, limitKey)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		as.recordLoginFailure(ctx, limitKey)
		return nil, ErrInvalidCredentials
	}

	if as.rdb != nil {
		as.rdb.Del(ctx, limitKey)
	}

	token, err := as.jwtService.GenerateToken(profile.ID, profile.Email, profile.Name, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResult{Profile: profile, Token: token}, nil
}

// recordLoginFailure 记录登录失败次数
func (as *AuthService) recordLoginFailure(ctx context.Context, key string) {
	if as.rdb == nil {
		return
	}
	count, err := as.rdb.Incr(ctx, key).Result()
	if err != nil {
		as.logger.Warn("record login failure", zap.Error(err))
		return
	}
	if count == 1 {
		as.rdb.Expire(ctx, key, as.authConfig.LoginBlockDuration)
	}
}

// SignOut 注销：将token加入黑名单直至过期
func (as *AuthService) SignOut(ctx context.Context, tokenString string) error {
	claims, err := as.jwtService.ValidateToken(tokenString)
	if err != nil {
		return ErrUnauthorized
	}

	if as.rdb == nil {
		return nil
	}

	expiration := time.Until(claims.ExpiresAt.Time)
	if expiration <= 0 {
		return nil
	}
	if err := as.rdb.Set(ctx, blacklistKey(tokenString), "1", expiration).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Authenticate 校验token并返回声明
func (as *AuthService) Authenticate(ctx context.Context, tokenString string) (*config.Claims, error) {
	if as.rdb != nil {
		exists, _ := as.rdb.Exists(ctx, blacklistKey(tokenString)).Result()
		if exists > 0 {
			return nil, ErrUnauthorized
		}
	}

	claims, err := as.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// CurrentUser 获取当前登录用户资料
func (as *AuthService) CurrentUser(ctx context.Context, session *Session) (*models.Profile, error) {
	if session == nil {
		return nil, ErrUnauthorized
	}
	return as.Profile(ctx, session.UserID)
}

// Profile 按ID获取用户资料
func (as *AuthService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := as.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

func blacklistKey(token string) string {
	return fmt.Sprintf("token:blacklist:%s", token)
}
