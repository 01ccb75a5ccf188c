package storage

import (
	"bytes"
	"context"
	"fmt"

	"vehicleoffer_go/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store S3（或S3兼容服务）图片存储
type S3Store struct {
	client        s3iface.S3API
	bucket        string
	publicBaseURL string
}

// NewS3Store 创建S3存储
func NewS3Store(cfg *config.StorageConfig) (*S3Store, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}

	base := cfg.PublicBaseURL
	if base == "" || base == "/uploads" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return NewS3StoreWithClient(s3.New(sess), cfg.Bucket, base), nil
}

// NewS3StoreWithClient 使用已有客户端创建S3存储
func NewS3StoreWithClient(client s3iface.S3API, bucket, publicBaseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, publicBaseURL: publicBaseURL}
}

// Put 上传图片（公开可读）
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %w", err)
	}
	return publicURL(s.publicBaseURL, key), nil
}

// Delete 删除图片
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("unable to delete file from S3: %w", err)
	}
	return nil
}
