package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/aesctl/internal/auth"
)

var startedAt = time.Now()

func registerRoutes(r *gin.Engine, name string, stats StatsSource, validator auth.Validator) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": name,
			"version": "0.0.1",
		})
	})

	gated := r.Group("/")
	if validator != nil {
		gated.Use(requireBearer(validator))
	}
	gated.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.Stats())
	})
	gated.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
