// Package scheduler 封装 gocron/v2，记录每个定时任务的运行状态供 /jobs 查看.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/filesort/pkg/log"
)

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error"
)

// Task 任务函数，返回的错误记录到 JobInfo.Error.
type Task func(ctx context.Context) error

// JobInfo 定时任务的状态快照.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Runs        int       `json:"runs"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Scheduler 按名称管理 cron 任务.
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.RWMutex
	jobs      map[string]gocron.Job
	infos     map[string]*JobInfo
	logger    *zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler 创建调度器，任务的 context 在 Stop 时取消.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		infos:     make(map[string]*JobInfo),
		logger:    log.Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// AddCron 添加 cron 任务，同一时刻同名任务只运行一个实例.
func (s *Scheduler) AddCron(name, cronExpr string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() { s.run(name, task) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	next, _ := j.NextRun()

	s.jobs[name] = j
	s.infos[name] = &JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		NextRun:   next,
		Status:    StatusScheduled,
		CreatedAt: time.Now(),
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("added cron job")

	return nil
}

// RunNow 立即执行一次任务，不影响原有调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	return j.RunNow()
}

// RemoveJobByName 移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	if err := s.scheduler.RemoveJob(j.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	delete(s.infos, name)

	return nil
}

// GetJobInfoByName 返回任务状态的副本.
func (s *Scheduler) GetJobInfoByName(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.infos[name]
	if !ok {
		return JobInfo{}, fmt.Errorf("job with name %s does not exist", name)
	}

	return s.snapshot(name, info), nil
}

// GetJobInfos 返回按名称排序的全部任务状态.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.infos))
	for name, info := range s.infos {
		out = append(out, s.snapshot(name, info))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("starting scheduler")
	s.scheduler.Start()
}

// Stop 取消运行中任务的 context 并等待调度器退出.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("stopping scheduler")
	s.cancel()

	return s.scheduler.Shutdown()
}

// snapshot 调用方需持有读锁.
func (s *Scheduler) snapshot(name string, info *JobInfo) JobInfo {
	out := *info

	if j, ok := s.jobs[name]; ok {
		if next, err := j.NextRun(); err == nil {
			out.NextRun = next
		}
	}

	return out
}

func (s *Scheduler) run(name string, task Task) {
	started := time.Now()
	s.update(name, func(info *JobInfo) {
		info.Status = StatusRunning
		info.LastRun = started
	})

	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in job: %v", r)
			}
		}()

		err = task(s.ctx)
	}()

	l := s.logger.With().Str("job", name).Str("job_run", uuid.NewString()).Logger()

	s.update(name, func(info *JobInfo) {
		info.Runs++
		if err != nil {
			info.Status = StatusError
			info.Error = err.Error()

			return
		}

		info.Status = StatusScheduled
		info.Error = ""
		info.LastSuccess = time.Now()
	})

	if err != nil {
		l.Error().Err(err).Dur("took", time.Since(started)).Msg("job failed")
		return
	}

	l.Debug().Dur("took", time.Since(started)).Msg("job done")
}

func (s *Scheduler) update(name string, fn func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		fn(info)
	}
}
