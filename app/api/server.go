package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP router with all routes configured.
func NewServer(handler *Handler) *gin.Engine {
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
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// External schedulers vary; some can only issue GETs, so the trigger
	// accepts both verbs.
	r.POST("/tasks/:name", handler.RunTask)
	r.GET("/tasks/:name", handler.RunTask)

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Listing Sync",
			"version": handler.version,
			"endpoints": map[string]string{
				"health": "/health",
				"stats":  "/stats",
				"tasks":  "/tasks/<name>?key=<secret>",
			},
		})
	})

	// Return 204 to avoid 404s from browsers
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
