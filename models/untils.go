package models

import (
	"github.com/google/uuid"
)

// generateUUID 生成UUID
func generateUUID() string {
	return uuid.New().String()
}

// NewID 生成新的实体ID（供非gorm存储使用）
func NewID() string {
	return generateUUID()
}
