package router

import (
	"net/http"
	"os"
	"path"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/yeisme/filesort/pkg/internal/types"
)

// RegisterStatic 未匹配路由的 GET/HEAD 请求从 fs 提供静态文件，响应使用 gzip 压缩.
func RegisterStatic(e *gin.Engine, fs afero.Fs) {
	files := http.FileServer(afero.NewHttpFs(noListingFs{fs}))

	e.NoRoute(gzip.Gzip(gzip.DefaultCompression), func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, types.MessageResponse{Message: "Not Found"})
			return
		}

		files.ServeHTTP(c.Writer, c.Request)
	})
}

// StaticFs 返回以 dir 为根的只读文件系统，dir 为空时返回 nil.
func StaticFs(dir string) afero.Fs {
	if dir == "" {
		return nil
	}

	return afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// noListingFs 没有 index.html 的目录按不存在处理，FileServer 因此返回 404 而不是列出目录.
type noListingFs struct {
	afero.Fs
}

func (fs noListingFs) Open(name string) (afero.File, error) {
	info, err := fs.Fs.Stat(name)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		if _, err := fs.Fs.Stat(path.Join(name, "index.html")); err != nil {
			return nil, os.ErrNotExist
		}
	}

	return fs.Fs.Open(name)
}
