package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codejudge/internal/common/cache"
	"codejudge/internal/gateway"
	"codejudge/internal/gateway/middleware"
	"codejudge/internal/gateway/service"
	"codejudge/internal/judge0"
	"codejudge/internal/judgeclient"
	"codejudge/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "configs/gateway.yaml"
	loopbackSubject   = "judge-gateway"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	issueToken := flag.String("issue-token", "", "Print a 24h access token for this subject and exit")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if *issueToken != "" {
		if appCfg.Auth.JWTSecret == "" {
			fmt.Fprintln(os.Stderr, "auth.jwtSecret is not configured")
			os.Exit(1)
		}
		token, err := service.NewAuthService(appCfg.Auth.JWTSecret, appCfg.Auth.JWTIssuer).IssueToken(*issueToken, "user", jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue token failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	clientCfg, err := appCfg.Client.JudgeClientConfig()
	if err != nil {
		logger.Error(ctx, "invalid client config", zap.Error(err))
		return
	}
	judge, err := judge0.New(clientCfg.Judge)
	if err != nil {
		logger.Error(ctx, "init judge0 client failed", zap.Error(err))
		return
	}
	var auth *service.AuthService
	if appCfg.Auth.JWTSecret != "" {
		auth = service.NewAuthService(appCfg.Auth.JWTSecret, appCfg.Auth.JWTIssuer)
	}
	clientCfg, err = withLoopbackToken(clientCfg, auth)
	if err != nil {
		logger.Error(ctx, "issue loopback token failed", zap.Error(err))
		return
	}
	workflows, err := judgeclient.New(clientCfg)
	if err != nil {
		logger.Error(ctx, "init judge client failed", zap.Error(err))
		return
	}

	opts := gateway.Options{
		Judge:     judge,
		Workflows: workflows,
		Languages: clientCfg.Languages,
		Auth:      auth,
		RatePolicy: middleware.RateLimitPolicy{
			Window:     appCfg.Rate.Window,
			SubjectMax: appCfg.Rate.SubjectMax,
			IPMax:      appCfg.Rate.IPMax,
			RouteMax:   appCfg.Rate.RouteMax,
		},
		ResultTTL:       appCfg.ResultCache.TTL,
		DefaultTestCase: appCfg.TestCase,
		AllowedOrigins:  appCfg.AllowedOrigins,
	}
	if appCfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
		if err != nil {
			logger.Error(ctx, "init redis failed", zap.Error(err))
			return
		}
		defer func() { _ = redisCache.Close() }()
		opts.RateLimit = service.NewRateLimitService(redisCache, appCfg.Rate.Window, appCfg.Redis.ReadTimeout)
		if appCfg.ResultCache.Enabled {
			opts.ResultCache = redisCache
		}
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:           appCfg.Server.Addr,
		Handler:        gateway.NewRouter(opts),
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxHeaderBytes: appCfg.Server.MaxHeaderBytes,
	}

	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(ctx, "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "judge gateway started",
			zap.String("addr", appCfg.Server.Addr),
			zap.Bool("auth", opts.Auth != nil),
			zap.Bool("rate_limit", opts.RateLimit != nil),
			zap.Bool("result_cache", opts.ResultCache != nil))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	ctxShutdown, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
}

// withLoopbackToken gives the stream endpoint's judge client a service token
// when auth is on, since its run workflow calls back into this gateway.
func withLoopbackToken(cfg judgeclient.Config, auth *service.AuthService) (judgeclient.Config, error) {
	if auth == nil || cfg.ExecutionToken != "" {
		return cfg, nil
	}
	token, err := auth.ServiceToken(loopbackSubject)
	if err != nil {
		return cfg, err
	}
	cfg.ExecutionToken = token
	return cfg, nil
}
