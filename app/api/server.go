package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type ServerOptions struct {
	APIAccessKey  string
	PushRateLimit float64
	PushRateBurst int
}

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, opts ServerOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/metrics"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, opts)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, opts ServerOptions) {
	articles := r.Group("/articles")
	{
		articles.GET("", handler.GetArticles)
		articles.GET("/breaking", handler.GetBreaking)
		articles.GET("/popular", handler.GetPopular)
		articles.GET("/category/:category", handler.GetCategory)
	}

	feeds := r.Group("/feeds")
	{
		feeds.GET("/breaking", handler.GetBreakingFeed)
		feeds.GET("/popular", handler.GetPopularFeed)
		feeds.GET("/category/:category", handler.GetCategoryFeed)
	}

	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.APIAccessKey != "" {
		limiter := NewRateLimiter(rateLimit(opts.PushRateLimit), max(opts.PushRateBurst, 1))

		api := r.Group("/api")
		api.Use(authMiddleware(opts.APIAccessKey))
		{
			api.GET("/push/token", handler.APIGetToken)
			api.POST("/push/token", handler.APISaveToken)
			api.POST("/push/events", limiter.Middleware(), handler.APIPushEvent)

			api.POST("/topics/:topic", handler.APISubscribe)
			api.DELETE("/topics/:topic", handler.APIUnsubscribe)

			api.GET("/notifications", handler.APIListNotifications)
			api.GET("/notifications/unread", handler.APIUnreadCount)
			api.POST("/notifications/read", handler.APIMarkAllRead)
			api.POST("/notifications/:id/read", handler.APIMarkRead)
			api.DELETE("/notifications/:id", handler.APIDeleteNotification)
			api.DELETE("/notifications", handler.APIClearNotifications)
		}
		slog.Info("API endpoints enabled with authentication")
	} else {
		slog.Info("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"articles": "/articles?limit=<n>&category=<name>",
			"breaking": "/articles/breaking",
			"popular":  "/articles/popular",
			"category": "/articles/category/<name>",
			"feeds":    "/feeds/{breaking,popular,category/<name>}",
			"health":   "/health",
			"metrics":  "/metrics",
		}

		if opts.APIAccessKey != "" {
			endpoints["push"] = "/api/push/{token,events} (requires X-API-Key header)"
			endpoints["topics"] = "/api/topics/<topic> (POST/DELETE, requires X-API-Key header)"
			endpoints["notifications"] = "/api/notifications (requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "News Relay",
			"version":     handler.version,
			"description": "News article relay with push token and notification handling",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"enabled":       opts.APIAccessKey != "",
				"auth_required": opts.APIAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

func rateLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
