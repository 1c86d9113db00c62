package configs

import (
	"strings"

	"github.com/spf13/viper"
)

// MatchMode 文件类型匹配方式.
type MatchMode string

const (
	// MatchExact 扩展名与 MIME 均需精确命中允许列表.
	MatchExact MatchMode = "exact"
	// MatchPattern 旧版行为：允许的类型用 | 拼接成正则，按子串匹配.
	MatchPattern MatchMode = "pattern"
)

const (
	DefaultUploadRootDir    = "uploads"  // 上传根目录
	DefaultUploadFieldName  = "files[]"  // multipart 字段名
	DefaultUploadMaxFiles   = 10         // 单次上传最多文件数
	DefaultUploadMaxMemory  = 32 << 20   // multipart 解析时内存中保留的最大字节数
	DefaultUploadMaxRequest = 512 << 20  // 请求体上限（字节），0 表示不限制
	DefaultUploadMatchMode  = MatchExact // 默认精确匹配
)

// UploadConfig 上传策略配置.
type UploadConfig struct {
	RootDir         string    `mapstructure:"root_dir"          rule:"required"`
	FieldName       string    `mapstructure:"field_name"        rule:"required"`
	AllowedTypes    []string  `mapstructure:"allowed_types"     rule:"required,min=1,dive,required"`
	MIMETypes       []string  `mapstructure:"mime_types"        rule:"dive,required"`
	MatchMode       MatchMode `mapstructure:"match_mode"        rule:"oneof=exact pattern"`
	SniffContent    bool      `mapstructure:"sniff_content"`
	MaxFiles        int       `mapstructure:"max_files"         rule:"min=1"`
	MaxFileSize     int64     `mapstructure:"max_file_size"     rule:"min=0"` // 单文件上限（字节），0 表示不限制
	MaxMemory       int64     `mapstructure:"max_memory"        rule:"min=0"`
	MaxRequestBytes int64     `mapstructure:"max_request_bytes" rule:"min=0"`
}

// normalize 去掉类型列表中的空白与空项，兼容 "jpg, png" 写法.
func (c *UploadConfig) normalize() {
	c.AllowedTypes = splitTokens(c.AllowedTypes)
	c.MIMETypes = splitTokens(c.MIMETypes)
}

func splitTokens(in []string) []string {
	out := make([]string, 0, len(in))

	for _, item := range in {
		for _, tok := range strings.Split(item, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				out = append(out, tok)
			}
		}
	}

	return out
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.root_dir", DefaultUploadRootDir)
	v.SetDefault("upload.field_name", DefaultUploadFieldName)
	v.SetDefault("upload.allowed_types", []string{"jpg", "jpeg", "png", "gif", "pdf"})
	v.SetDefault("upload.mime_types", []string{})
	v.SetDefault("upload.match_mode", string(DefaultUploadMatchMode))
	v.SetDefault("upload.sniff_content", false)
	v.SetDefault("upload.max_files", DefaultUploadMaxFiles)
	v.SetDefault("upload.max_file_size", 0)
	v.SetDefault("upload.max_memory", DefaultUploadMaxMemory)
	v.SetDefault("upload.max_request_bytes", DefaultUploadMaxRequest)
}
