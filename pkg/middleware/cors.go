package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/configs"
)

// CORSMiddleware CORS中间件，上传接口面向浏览器表单，允许任意来源.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "HEAD", "POST", "OPTIONS"}
	config.AllowFiles = true

	if cfg.Debug {
		config.AllowHeaders = append(config.AllowHeaders, "X-Request-Id")
	}

	return cors.New(config)
}
