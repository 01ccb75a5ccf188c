package services

import (
	"vehicleoffer_go/config"
	"vehicleoffer_go/models"
)

// Session 当前请求的已认证用户，nil 表示匿名
type Session struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// SessionFromClaims 从JWT声明构建会话
func SessionFromClaims(claims *config.Claims) *Session {
	if claims == nil {
		return nil
	}
	return &Session{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
	}
}

// IsSeller 是否卖家
func (s *Session) IsSeller() bool {
	return s != nil && s.Role == models.RoleSeller
}

func requireSeller(s *Session) error {
	if s == nil {
		return ErrUnauthorized
	}
	if !s.IsSeller() {
		return ErrForbidden
	}
	return nil
}
