// Package api 汇总 HTTP 接口的路由注册.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/yeisme/filesort/pkg/internal/router"
)

// Routes 需要挂载的接口. Static 为 nil 时不提供静态资源.
type Routes struct {
	Upload       router.UploadHandlers
	UploadGuards []gin.HandlerFunc
	Static       afero.Fs
	Jobs         bool
}

// RegisterGroup 把上传、健康检查、定时任务与静态资源路由注册到 e.
func RegisterGroup(e *gin.Engine, r Routes) *gin.Engine {
	if r.Upload != nil {
		router.RegisterUploadRoute(e, r.Upload, r.UploadGuards...)
	}

	router.RegisterHealthCheckRoute(e)

	if r.Jobs {
		router.RegisterSchedulerRoutes(e)
	}

	if r.Static != nil {
		router.RegisterStatic(e, r.Static)
	}

	return e
}
