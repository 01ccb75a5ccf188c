package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vehicleoffer_go/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UploadConfig 上传配置
type UploadConfig struct {
	MaxFileSize    int64    // 最大文件大小（字节）
	MaxFiles       int      // 单次最多文件数
	AllowedFormats []string // 允许的文件格式
}

// DefaultUploadConfig 默认上传配置
var DefaultUploadConfig = &UploadConfig{
	MaxFileSize:    10 * 1024 * 1024, // 10MB
	MaxFiles:       10,
	AllowedFormats: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
}

// UploadResult 上传结果
type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	FileSize int64  `json:"file_size"`
	FileName string `json:"file_name"`
}

// UploadError 单个文件校验/上传失败
type UploadError struct {
	FileName string
	Reason   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.FileName, e.Reason)
}

// FileUploader 图片上传器，写入对象存储
type FileUploader struct {
	config *UploadConfig
	store  storage.ImageStore
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewFileUploader 创建文件上传器实例
func NewFileUploader(store storage.ImageStore, rdb *redis.Client, logger *zap.Logger, cfg *UploadConfig) *FileUploader {
	if cfg == nil {
		cfg = DefaultUploadConfig
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileUploader{config: cfg, store: store, rdb: rdb, logger: logger, now: time.Now}
}

// MaxFiles 单次最多文件数
func (fu *FileUploader) MaxFiles() int {
	return fu.config.MaxFiles
}

// Check 校验文件大小与格式
func (fu *FileUploader) Check(fileName string, size int64) error {
	if size <= 0 {
		return &UploadError{FileName: fileName, Reason: "file is empty"}
	}
	if size > fu.config.MaxFileSize {
		return &UploadError{FileName: fileName, Reason: fmt.Sprintf("file size exceeds maximum allowed size of %d bytes", fu.config.MaxFileSize)}
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !fu.isAllowedFormat(ext) {
		return &UploadError{FileName: fileName, Reason: fmt.Sprintf("file format %s is not allowed", ext)}
	}
	return nil
}

// UploadBytes 上传单张图片内容，返回公开URL
func (fu *FileUploader) UploadBytes(ctx context.Context, ownerID, fileName string, data []byte) (*UploadResult, error) {
	if err := fu.Check(fileName, int64(len(data))); err != nil {
		return nil, err
	}

	key := storage.ObjectKey(ownerID, fileName, fu.now())
	url, err := fu.store.Put(ctx, key, contentType(fileName, data), data)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", fileName, err)
	}

	result := &UploadResult{
		URL:      url,
		Key:      key,
		FileSize: int64(len(data)),
		FileName: fileName,
	}

	if fu.rdb != nil {
		go fu.cacheFileMetadata(result)
	}

	return result, nil
}

// UploadFiles 并发上传多个文件，结果顺序与输入一致
// 任一文件失败时删除已上传的对象
func (fu *FileUploader) UploadFiles(ctx context.Context, ownerID string, files []*multipart.FileHeader) ([]*UploadResult, error) {
	if len(files) == 0 {
		return nil, &UploadError{FileName: "images", Reason: "no files uploaded"}
	}
	if fu.config.MaxFiles > 0 && len(files) > fu.config.MaxFiles {
		return nil, &UploadError{FileName: "images", Reason: fmt.Sprintf("maximum is %d images", fu.config.MaxFiles)}
	}

	// 先同步校验，避免部分上传
	for _, f := range files {
		if err := fu.Check(f.Filename, f.Size); err != nil {
			return nil, err
		}
	}

	var wg sync.WaitGroup
	results := make([]*UploadResult, len(files))
	errs := make([]error, len(files))

	for i, file := range files {
		wg.Add(1)
		go func(i int, f *multipart.FileHeader) {
			defer wg.Done()

			data, err := readFile(f)
			if err != nil {
				errs[i] = fmt.Errorf("failed to read file %s: %w", f.Filename, err)
				return
			}
			results[i], errs[i] = fu.UploadBytes(ctx, ownerID, f.Filename, data)
		}(i, file)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			fu.rollback(results)
			return nil, err
		}
	}

	return results, nil
}

func (fu *FileUploader) rollback(results []*UploadResult) {
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := fu.store.Delete(context.Background(), r.Key); err != nil {
			fu.logger.Warn("rollback upload", zap.String("key", r.Key), zap.Error(err))
		}
	}
}

// cacheFileMetadata 缓存文件元数据到Redis
func (fu *FileUploader) cacheFileMetadata(result *UploadResult) {
	ctx := context.Background()
	key := fmt.Sprintf("file:metadata:%s", result.Key)

	metadata := map[string]interface{}{
		"url":       result.URL,
		"file_size": result.FileSize,
		"file_name": result.FileName,
		"cached_at": fu.now().Unix(),
	}

	fu.rdb.HSet(ctx, key, metadata)
	fu.rdb.Expire(ctx, key, 24*time.Hour)
}

// isAllowedFormat 检查文件格式是否允许
func (fu *FileUploader) isAllowedFormat(ext string) bool {
	for _, allowed := range fu.config.AllowedFormats {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

func readFile(f *multipart.FileHeader) ([]byte, error) {
	src, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

func contentType(fileName string, data []byte) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}
