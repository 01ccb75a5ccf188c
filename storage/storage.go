package storage

import (
	"context"
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"

	"vehicleoffer_go/config"
)

// ImageStore 图片对象存储
type ImageStore interface {
	// Put 保存对象并返回公开访问URL
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete 删除对象（对象不存在时不报错）
	Delete(ctx context.Context, key string) error
}

// New 根据配置创建存储实现
func New(cfg *config.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case config.StorageS3:
		return NewS3Store(cfg)
	case config.StorageLocal, "":
		return NewLocalStore(cfg.UploadPath, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// ObjectKey 生成对象键: <ownerID>/<unixMillis>-<random>.<ext>
func ObjectKey(ownerID, fileName string, now time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%d-%d.%s", ownerID, now.UnixMilli(), rand.Uint64(), ext)
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
