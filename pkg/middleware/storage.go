package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/internal/storage"
)

// StorageMiddleware 将存储 Manager 注入请求 context.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := storage.WithManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
