// Package configs 管理应用程序配置，包括服务器、上传策略、存储、序号分配和事件的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML）、环境变量与 .env 文件，并可启用热重载.
//
// Example:
//
//	import "path/to/configs"
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing Upload config:
//
//	config := configs.GetConfig()
//	up := config.Upload
//	fmt.Println("root:", up.RootDir, "types:", up.AllowedTypes)
//
// 兼容旧部署的环境变量：PORT、UPLOAD_DIR、ALLOWED_FILE_TYPES、MAX_FILE_UPLOADS.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yeisme/filesort/pkg/rule"
)

// EnvPrefix 环境变量前缀，例如 FILESORT_UPLOAD_ROOT_DIR.
const EnvPrefix = "FILESORT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 监听地址、超时、静态目录等
		Upload         UploadConfig         `mapstructure:"upload"`          // UploadConfig 上传策略
		Storage        StorageConfig        `mapstructure:"storage"`         // StorageConfig 文件落盘后端
		Sequence       SequenceConfig       `mapstructure:"sequence"`        // SequenceConfig 分类序号分配
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件发布
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 分布式追踪
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
		Jobs           JobsConfig           `mapstructure:"jobs"`            // JobsConfig 定时任务
	}
)

// legacyEnv 旧版部署直接使用的环境变量名.
var legacyEnv = map[string]string{
	"server.port":          "PORT",
	"upload.root_dir":      "UPLOAD_DIR",
	"upload.allowed_types": "ALLOWED_FILE_TYPES",
	"upload.max_files":     "MAX_FILE_UPLOADS",
}

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper

	mu            sync.RWMutex
	reloadHooks   []func(AppConfig)
	reloadHooksMu sync.Mutex
)

// InitConfig 加载应用程序配置并设置为全局配置，按需启用热重载.
func InitConfig(path string) error {
	v, cfg, err := Load(path)
	if err != nil {
		return err
	}

	mu.Lock()
	globalConfig = cfg
	appViper = v
	mu.Unlock()

	reloadConfigs(v, cfg.Server.ReloadConfig)

	return nil
}

// Load 读取配置但不修改全局状态. path 可以是配置文件或所在目录，为空时使用当前目录.
// 配置文件不存在不是错误，此时仅使用默认值与环境变量.
func Load(path string) (*viper.Viper, AppConfig, error) {
	var cfg AppConfig

	if path == "" {
		path = "."
	}

	loadDotEnv(path)

	v := viper.New()
	setAllDefaults(v)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range []string{"yaml", "yml", "json", "toml"} {
			file := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(file); err == nil {
				v.SetConfigFile(file)

				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, cfg, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Upload.normalize()

	if err := rule.ValidateStruct(cfg); err != nil {
		return nil, cfg, fmt.Errorf("invalid config: %w", err)
	}

	return v, cfg, nil
}

// loadDotEnv 加载 .env 文件到进程环境变量，已存在的变量不会被覆盖.
func loadDotEnv(path string) {
	candidates := []string{".env"}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		candidates = append(candidates, filepath.Join(path, ".env"))
	}

	for _, file := range candidates {
		if _, err := os.Stat(file); err != nil {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", file, err)
		}
	}
}

// bindLegacyEnv 绑定带前缀的环境变量与旧版变量名，前者优先.
func bindLegacyEnv(v *viper.Viper) {
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var cfg AppConfig

	cfg.Server.setDefaults(v)
	cfg.Upload.setDefaults(v)
	cfg.Storage.setDefaults(v)
	cfg.Sequence.setDefaults(v)
	cfg.Events.setDefaults(v)
	cfg.Log.setDefaults(v)
	cfg.Metrics.setDefaults(v)
	cfg.Tracing.setDefaults(v)
	cfg.RateLimit.setDefaults(v)
	cfg.CircuitBreaker.setDefaults(v)
	cfg.Jobs.setDefaults(v)
}

// OnReload 注册配置热重载回调，回调收到新的配置快照.
func OnReload(fn func(AppConfig)) {
	reloadHooksMu.Lock()
	defer reloadHooksMu.Unlock()

	reloadHooks = append(reloadHooks, fn)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			fmt.Fprintf(os.Stderr, "Error reloading config %s: %v\n", e.Name, err)
			return
		}

		next.Upload.normalize()

		if err := rule.ValidateStruct(next); err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring invalid config %s: %v\n", e.Name, err)
			return
		}

		mu.Lock()
		globalConfig = next
		mu.Unlock()

		reloadHooksMu.Lock()
		hooks := append([]func(AppConfig){}, reloadHooks...)
		reloadHooksMu.Unlock()

		for _, hook := range hooks {
			hook(next)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置的快照.
func GetConfig() AppConfig {
	mu.RLock()
	defer mu.RUnlock()

	return globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()

	return appViper
}
