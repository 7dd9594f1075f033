package main

import (
	"fmt"
	"net"
	"time"

	"codejudge/internal/common/cache"
	"codejudge/internal/config"
	"codejudge/internal/judgeclient"
	"codejudge/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
	defaultResultTTL       = 10 * time.Minute
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"`
}

// AuthConfig holds JWT settings. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	JWTIssuer string `yaml:"jwtIssuer"`
}

// RateLimitConfig holds fixed-window limits applied per route.
type RateLimitConfig struct {
	Window     time.Duration `yaml:"window"`
	SubjectMax int           `yaml:"subjectMax"`
	IPMax      int           `yaml:"ipMax"`
	RouteMax   int           `yaml:"routeMax"`
}

// ResultCacheConfig controls caching of finished executions.
type ResultCacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// AppConfig holds the gateway configuration.
type AppConfig struct {
	Server         ServerConfig         `yaml:"server"`
	Logger         logger.Config        `yaml:"logger"`
	Auth           AuthConfig           `yaml:"auth"`
	Redis          cache.RedisConfig    `yaml:"redis"` // optional; rate limits and result cache need it
	Rate           RateLimitConfig      `yaml:"rateLimit"`
	ResultCache    ResultCacheConfig    `yaml:"resultCache"`
	Client         config.ClientConfig  `yaml:"client"`
	TestCase       judgeclient.TestCase `yaml:"testCase"`
	AllowedOrigins []string             `yaml:"allowedOrigins"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := config.LoadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = defaultMaxHeaderBytes
	}

	if cfg.Redis.Addr != "" {
		cfg.Redis.ApplyDefaults()
	} else if cfg.ResultCache.Enabled || cfg.Rate.IPMax > 0 || cfg.Rate.SubjectMax > 0 || cfg.Rate.RouteMax > 0 {
		return nil, fmt.Errorf("redis addr is required for rate limits and the result cache")
	}
	if cfg.Rate.Window == 0 {
		cfg.Rate.Window = time.Minute
	}
	if cfg.ResultCache.TTL == 0 {
		cfg.ResultCache.TTL = defaultResultTTL
	}

	cfg.Client.ApplyEnv()
	cfg.Client.ApplyDefaults()
	if cfg.Client.ExecutionURL == "" {
		// the stream endpoint's run mode calls back into this gateway
		cfg.Client.ExecutionURL = loopbackURL(cfg.Server.Addr)
	}
	if cfg.TestCase.Stdin == "" && cfg.TestCase.ExpectedOutput == "" {
		cfg.TestCase = config.DefaultTestCase()
	}
	return &cfg, nil
}

func loopbackURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
