package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore 本地磁盘图片存储，由 /uploads 静态路由提供访问
type LocalStore struct {
	root          string
	publicBaseURL string
}

// NewLocalStore 创建本地存储
func NewLocalStore(root, publicBaseURL string) *LocalStore {
	return &LocalStore{root: root, publicBaseURL: publicBaseURL}
}

// Root 存储根目录
func (s *LocalStore) Root() string {
	return s.root
}

// Put 写入文件
func (s *LocalStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filePath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return publicURL(s.publicBaseURL, key), nil
}

// Delete 删除文件
func (s *LocalStore) Delete(_ context.Context, key string) error {
	filePath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
