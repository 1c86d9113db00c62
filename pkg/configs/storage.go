package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// StorageType 文件落盘后端类型.
type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageS3    StorageType = "s3"
)

// StorageConfig 文件存储配置. local 直接写入 upload.root_dir，s3 以 root_dir 作为对象键前缀.
type StorageConfig struct {
	Type StorageType `mapstructure:"type" rule:"oneof=local s3"`
	S3   S3Config    `mapstructure:"s3"`
}

// S3Config MinIO S3存储配置.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Region          string `mapstructure:"region"`
}

const (
	DefaultStorageType       = StorageLocal
	DefaultS3Endpoint        = "localhost:9000" // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"     // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"     // 默认秘密访问密钥
	DefaultS3UseSSL          = false            // 默认是否使用SSL
	DefaultS3BucketName      = "filesort"       // 默认存储桶名称
	DefaultS3Region          = "us-east-1"      // 默认区域
)

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置存储配置的默认值.
func (c *StorageConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("storage.type", string(DefaultStorageType))
	v.SetDefault("storage.s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("storage.s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("storage.s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("storage.s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("storage.s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("storage.s3.region", DefaultS3Region)
}
