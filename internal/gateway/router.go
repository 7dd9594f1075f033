// Package gateway assembles the execution gateway HTTP server.
package gateway

import (
	"net/http"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/common/cache"
	"codejudge/internal/gateway/handler"
	"codejudge/internal/gateway/middleware"
	"codejudge/internal/gateway/service"
	"codejudge/internal/judgeclient"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options wires the router. Judge is required; the rest is optional.
type Options struct {
	Judge     handler.Judge
	Workflows handler.Workflows
	Languages codec.LanguageTable

	Auth       *service.AuthService
	RateLimit  *service.RateLimitService
	RatePolicy middleware.RateLimitPolicy

	ResultCache cache.BasicOps
	ResultTTL   time.Duration

	DefaultTestCase judgeclient.TestCase
	AllowedOrigins  []string
}

// NewRouter builds the gin engine serving the judge API.
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())
	router.Use(middleware.RequestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	judgeHandler := handler.NewJudgeHandler(opts.Judge, opts.Languages, opts.ResultCache, opts.ResultTTL)

	api := router.Group("/api/judge")
	api.Use(middleware.AuthMiddleware(opts.Auth))
	api.GET("/languages", judgeHandler.Languages)
	api.POST("/submit-code",
		middleware.RateLimitMiddleware(opts.RateLimit, "submit-code", opts.RatePolicy),
		judgeHandler.SubmitCode)

	if opts.Workflows != nil {
		streamHandler := handler.NewStreamHandler(opts.Workflows, opts.DefaultTestCase, opts.AllowedOrigins)
		api.GET("/ws",
			middleware.RateLimitMiddleware(opts.RateLimit, "ws", opts.RatePolicy),
			streamHandler.Stream)
	}
	return router
}
