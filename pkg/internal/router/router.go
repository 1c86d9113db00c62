// Package router 把处理器绑定到 gin 引擎，处理器由 pkg/internal/handle 提供并由 app 注入.
package router

import (
	"github.com/gin-gonic/gin"
)

// UploadHandlers 上传处理器.
type UploadHandlers interface {
	Upload(c *gin.Context)
}

// RegisterUploadRoute 绑定 POST /upload. guards 按顺序执行，通常是限流与熔断.
func RegisterUploadRoute(r gin.IRoutes, h UploadHandlers, guards ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, guards...), h.Upload)
	r.POST("/upload", handlers...)
}
