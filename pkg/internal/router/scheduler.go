package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册定时任务相关路由.
func RegisterSchedulerRoutes(g gin.IRoutes) {
	g.GET("/jobs", handle.Jobs)
	g.POST("/jobs/:name/run", handle.RunJob)
}
