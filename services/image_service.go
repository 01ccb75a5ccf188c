package services

import (
	"context"
	"errors"
	"mime/multipart"

	"vehicleoffer_go/utils"

	"go.uber.org/zap"
)

// ImageService 车辆图片上传服务
type ImageService struct {
	uploader *utils.FileUploader
	logger   *zap.Logger
}

// NewImageService 创建图片服务实例
func NewImageService(uploader *utils.FileUploader, logger *zap.Logger) *ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{uploader: uploader, logger: logger}
}

// Upload 卖家上传图片，返回与输入顺序一致的公开URL
func (is *ImageService) Upload(ctx context.Context, owner *Session, files []*multipart.FileHeader) ([]string, error) {
	if err := requireSeller(owner); err != nil {
		return nil, err
	}

	results, err := is.uploader.UploadFiles(ctx, owner.UserID, files)
	if err != nil {
		var uploadErr *utils.UploadError
		if errors.As(err, &uploadErr) {
			return nil, &ValidationError{Errors: map[string]string{"images": uploadErr.Error()}}
		}
		is.logger.Error("image upload failed", zap.String("owner_id", owner.UserID), zap.Error(err))
		return nil, ErrConnectivity
	}

	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls, nil
}

// UploadImage 上传单张图片内容
func (is *ImageService) UploadImage(ctx context.Context, owner *Session, fileName string, data []byte) (string, error) {
	if err := requireSeller(owner); err != nil {
		return "", err
	}

	result, err := is.uploader.UploadBytes(ctx, owner.UserID, fileName, data)
	if err != nil {
		var uploadErr *utils.UploadError
		if errors.As(err, &uploadErr) {
			return "", &ValidationError{Errors: map[string]string{"image": uploadErr.Error()}}
		}
		return "", ErrConnectivity
	}
	return result.URL, nil
}
