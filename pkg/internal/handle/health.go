package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/storage"
	"github.com/yeisme/filesort/pkg/internal/types"
)

const timeout = 2 * time.Second

const (
	statusOK        = "ok"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// Health 检查文件存储、计数器与事件总线，任一不可用时返回 503.
//
//	@Summary	健康检查
//	@Tags		系统
//	@Produce	json
//	@Success	200	{object}	types.HealthStatus
//	@Failure	503	{object}	types.HealthStatus
//	@Router		/health [get]
func Health(c *gin.Context) {
	mgr := storage.GetManagerFromContext(c.Request.Context())

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	res := checkHealth(ctx, mgr)

	code := http.StatusOK
	if res.Status != statusOK {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, res)
}

func checkHealth(ctx context.Context, mgr *storage.Manager) types.HealthStatus {
	res := types.HealthStatus{
		Status:     statusOK,
		Version:    configs.AppVersion,
		Components: map[string]string{},
		CheckedAt:  time.Now().UTC(),
	}

	mark := func(name string, err error) {
		if err != nil {
			res.Components[name] = statusUnhealthy + ": " + err.Error()
			res.Status = statusUnhealthy

			return
		}

		res.Components[name] = statusOK
	}

	if mgr == nil || mgr.Files == nil {
		res.Components["storage"] = statusUnhealthy + ": storage manager not initialized"
		res.Status = statusUnhealthy

		return res
	}

	mark("storage", mgr.Files.Ping(ctx))

	if mgr.Sequence != nil {
		_, err := mgr.Sequence.Snapshot(ctx)
		mark("sequence", err)
	}

	if mgr.MQ == nil {
		res.Components["events"] = statusDisabled
	} else {
		res.Components["events"] = statusOK
	}

	return res
}
