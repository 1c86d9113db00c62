package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g gin.IRoutes) {
	g.GET("/health", handle.Health)
	g.HEAD("/health", handle.Health)
}
