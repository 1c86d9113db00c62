// Package types 定义 handler、service 与存储层之间传递的数据结构.
package types

import "io"

// IncomingFile 请求中的单个文件，文件名与 MIME 均来自客户端，不可信.
type IncomingFile struct {
	Filename    string
	ContentType string
	Size        int64
	// Open 惰性打开文件内容，调用方负责关闭.
	Open func() (io.ReadCloser, error)
}

// ClassifiedFile 通过校验、已确定分类的文件.
type ClassifiedFile struct {
	IncomingFile

	Category string // 小写扩展名，不含点，同时是子目录名与计数器名
	Ext      string // 原始扩展名（含点，保留大小写）
}

// StoredFile 已落盘的文件，仅用于日志、指标与事件，不返回给 HTTP 调用方.
type StoredFile struct {
	Category     string `json:"category"`
	Sequence     int    `json:"sequence"`
	Path         string `json:"path"` // 相对上传根目录，例如 jpg/jpg-1.JPG
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Checksum     string `json:"checksum"` // xxhash64，16 位十六进制
}

// MessageResponse 上传接口的统一响应体.
type MessageResponse struct {
	Message string `json:"message"`
}

// Object 写入存储时的对象描述.
type Object struct {
	Path        string // 相对上传根目录，使用 / 分隔
	ContentType string
	Size        int64
}
