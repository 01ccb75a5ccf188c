package config

// 存储驱动
const (
	StorageS3    = "s3"
	StorageLocal = "local"
)

// StorageConfig 图片存储配置
type StorageConfig struct {
	Driver        string
	Bucket        string
	Region        string
	Endpoint      string // S3兼容服务地址，留空使用AWS
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // 公开访问前缀
	UploadPath    string // 本地存储目录
}

// GetStorageConfig 获取图片存储配置
func GetStorageConfig() *StorageConfig {
	return &StorageConfig{
		Driver:        GetEnv("STORAGE_DRIVER", StorageLocal),
		Bucket:        GetEnv("S3_BUCKET", "vehicle-images"),
		Region:        GetEnv("S3_REGION", "us-east-1"),
		Endpoint:      GetEnv("S3_ENDPOINT", ""),
		AccessKey:     GetEnv("S3_ACCESS_KEY", ""),
		SecretKey:     GetEnv("S3_SECRET_KEY", ""),
		PublicBaseURL: GetEnv("STORAGE_PUBLIC_BASE_URL", "/uploads"),
		UploadPath:    GetEnv("UPLOAD_PATH", "./uploads"),
	}
}
