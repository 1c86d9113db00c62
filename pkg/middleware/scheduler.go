package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/scheduler"
)

const schedulerCtxKey = "filesort.scheduler"

// SchedulerMiddleware 把调度器放进 gin.Context，供 /jobs 处理器读取.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(schedulerCtxKey, sched)
		c.Next()
	}
}

// GetScheduler 返回注入的调度器，未启用定时任务时为 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	v, ok := c.Get(schedulerCtxKey)
	if !ok {
		return nil
	}

	sched, _ := v.(*scheduler.Scheduler)

	return sched
}
