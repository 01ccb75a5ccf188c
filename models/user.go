package models

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// Profile 用户资料模型
// 角色在注册时确定，之后不可修改
type Profile struct {
	ID           string    `gorm:"type:varchar(36);primaryKey;comment:用户ID (UUID)" json:"id"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null;comment:邮箱" json:"email"`
	Name         string    `gorm:"type:varchar(100);not null;comment:姓名" json:"name"`
	Role         string    `gorm:"type:varchar(10);not null;comment:buyer,seller" json:"role"`
	PasswordHash string    `gorm:"type:varchar(255);not null;comment:密码" json:"-"` // 不返回给前端
	CreatedAt    time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt    time.Time `gorm:"comment:更新时间" json:"updated_at"`
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate 创建前钩子
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

// IsSeller 是否卖家
func (p *Profile) IsSeller() bool {
	return p != nil && p.Role == RoleSeller
}

// ValidRole 校验角色取值
func ValidRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller
}
