// Package app 组装配置、日志、存储、调度与 HTTP 服务，并负责优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filesort/pkg/api"
	"github.com/yeisme/filesort/pkg/configs"
	"github.com/yeisme/filesort/pkg/internal/handle"
	"github.com/yeisme/filesort/pkg/internal/jobs"
	"github.com/yeisme/filesort/pkg/internal/router"
	"github.com/yeisme/filesort/pkg/internal/service"
	"github.com/yeisme/filesort/pkg/internal/storage"
	"github.com/yeisme/filesort/pkg/log"
	"github.com/yeisme/filesort/pkg/metrics"
	"github.com/yeisme/filesort/pkg/middleware"
	"github.com/yeisme/filesort/pkg/scheduler"
	"github.com/yeisme/filesort/pkg/tracing"
)

// App 持有 HTTP 引擎与全部运行期资源.
type App struct {
	Engine  *gin.Engine
	config  configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
	server  *http.Server
}

// New 按配置快照构建应用. 配置在 App 生命周期内不变，热重载只调整日志级别.
func New(ctx context.Context, cfg configs.AppConfig) (*App, error) {
	log.Init(cfg.Log, cfg.Server.Debug)

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := tracing.InitTracer(ctx, cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a := &App{config: cfg, manager: manager}

	if cfg.Jobs.Enabled {
		if a.sched, err = scheduler.NewScheduler(); err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("init scheduler: %w", err)
		}

		if err := jobs.RegisterCronJobs(a.sched, cfg.Jobs, manager); err != nil {
			_ = a.sched.Stop()
			_ = manager.Close()

			return nil, fmt.Errorf("register jobs: %w", err)
		}
	}

	svc, err := service.NewUploadService(cfg, manager)
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}

	a.Engine = a.newEngine(handle.NewUploadHandler(svc, cfg.Upload))

	a.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Engine,
		ReadTimeout:  cfg.Server.GetTimeoutDuration(),
		WriteTimeout: cfg.Server.GetTimeoutDuration(),
	}

	configs.OnReload(func(c configs.AppConfig) {
		if err := log.SetLevel(c.Log.Level); err != nil {
			log.Logger().Warn().Err(err).Msg("ignore invalid log level on reload")
		}
	})

	return a, nil
}

func (a *App) newEngine(upload *handle.UploadHandler) *gin.Engine {
	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(a.config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(a.manager),
	)

	if a.sched != nil {
		engine.Use(middleware.SchedulerMiddleware(a.sched))
	}

	_ = metrics.StartMetricsServer(a.config.Metrics, engine)

	api.RegisterGroup(engine, api.Routes{
		Upload: upload,
		UploadGuards: []gin.HandlerFunc{
			middleware.RateLimitMiddleware(a.config.RateLimit),
			middleware.CircuitBreakerMiddleware("upload", a.config.CircuitBreaker),
		},
		Static: router.StaticFs(a.config.Server.StaticDir),
		Jobs:   a.sched != nil,
	})

	return engine
}

// Run 启动 HTTP 服务与调度器，ctx 取消后优雅退出并释放资源.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.sched != nil {
		a.sched.Start()
	}

	g.Go(func() error {
		log.Logger().Info().
			Str("addr", a.server.Addr).
			Str("upload_root", a.config.Upload.RootDir).
			Strs("allowed_types", a.config.Upload.AllowedTypes).
			Msgf("server is running on port %d", a.config.Server.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.Server.GetShutdownTimeout())
		defer cancel()

		log.Logger().Info().Msg("shutting down")

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			log.Logger().Error().Err(err).Msg("http shutdown")
		}

		return a.close(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) close(ctx context.Context) error {
	var errs []error

	if a.sched != nil {
		errs = append(errs, a.sched.Stop())
	}

	errs = append(errs, a.manager.Close())

	tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	errs = append(errs, tracing.ShutdownTracer(tctx))

	return errors.Join(errs...)
}
