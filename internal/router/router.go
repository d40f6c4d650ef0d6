package router

import (
	"embed"
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"Answer-Evaluation-Backend/internal/api"
	"Answer-Evaluation-Backend/internal/metrics"
)

//go:embed templates/*.html
var templatesFS embed.FS

func SetupRouter(
	evaluateHandler *api.EvaluateHandler,
	collector *metrics.Collector,
	logger *zap.Logger,
	allowedOrigins []string,
	maxUploadBytes int64,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), requestMetrics(collector))
	r.MaxMultipartMemory = maxUploadBytes

	r.Use(cors.New(corsConfig(allowedOrigins)))

	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", nil)
	})
	r.POST("/evaluate", limitBody(maxUploadBytes), evaluateHandler.EvaluateHandler)
	r.GET("/health", evaluateHandler.HealthHandler)
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	return r
}

func corsConfig(allowedOrigins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowHeaders = append(config.AllowHeaders, "Content-Type")
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = allowedOrigins
	return config
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	log := logger.With(zap.String("component", "http"))
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("[HTTP] request served",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func requestMetrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
