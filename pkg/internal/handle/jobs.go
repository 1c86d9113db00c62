package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filesort/pkg/middleware"
)

// Jobs 返回所有定时任务的状态.
//
//	@Summary	定时任务列表
//	@Tags		任务
//	@Produce	json
//	@Success	200	{object}	map[string][]scheduler.JobInfo
//	@Router		/jobs [get]
func Jobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []any{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// RunJob 立即执行一次指定任务.
//
//	@Summary	立即执行任务
//	@Tags		任务
//	@Produce	json
//	@Param		name	path		string	true	"任务名，例如 stats.refresh"
//	@Success	202		{object}	types.MessageResponse
//	@Failure	404		{object}	types.MessageResponse
//	@Failure	503		{object}	types.MessageResponse
//	@Router		/jobs/{name}/run [post]
func RunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		respond(c, http.StatusServiceUnavailable, "scheduler disabled")
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		respond(c, http.StatusNotFound, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered"})
}
