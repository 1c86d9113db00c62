// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP 请求与文件分类相关指标.
//
// Example:
//
//	import "github.com/yeisme/filesort/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.FilesStored.WithLabelValues("jpg").Inc()
//	metrics.BatchDuration.WithLabelValues("ok").Observe(0.1)
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filesort/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections 活跃连接数.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// FilesStored 按分类统计成功落盘的文件数.
	FilesStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesort_files_stored_total",
			Help: "Total number of files stored, by category",
		},
		[]string{"category"},
	)

	// FilesRejected 按原因统计被拒绝的批次.
	FilesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesort_batches_rejected_total",
			Help: "Total number of rejected upload batches, by reason",
		},
		[]string{"reason"},
	)

	// BatchDuration 单次批量整理耗时.
	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filesort_batch_duration_seconds",
			Help:    "Duration of organizing one upload batch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// CategoryEntries 各分类目录当前条目数，由定时任务刷新.
	CategoryEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "filesort_category_entries",
			Help: "Number of entries in each category directory",
		},
		[]string{"category"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	registerOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只注册一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	registerOnce.Do(func() {
		// 注册标准收集器
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(
			RequestCounter, RequestDuration, ActiveConnections,
			FilesStored, FilesRejected, BatchDuration, CategoryEntries,
		)
	})

	return nil
}

// StartMetricsServer 在 engine 上挂载 Metrics 端点.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
