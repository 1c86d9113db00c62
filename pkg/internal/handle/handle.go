// Package handle 实现 HTTP 处理器，错误统一以 {"message": ...} 返回.
package handle

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/internal/types"
)

func respond(c *gin.Context, status int, msg string) {
	c.JSON(status, types.MessageResponse{Message: msg})
}
