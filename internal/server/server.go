// Package server owns the admin HTTP surface: health, stats snapshot,
// Prometheus metrics. Purely observational; the wire protocol is
// unaffected by anything served here.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/danmuck/aesctl/internal/auth"
	"github.com/danmuck/aesctl/internal/observability"
	"github.com/danmuck/aesctl/internal/runloop"
)

// StatsSource yields the control loop's counter snapshot.
type StatsSource interface {
	Stats() runloop.Stats
}

type AdminServer struct {
	name   string
	addr   string
	router *gin.Engine
}

// Options carries the optional pieces of the admin surface.
type Options struct {
	CorsOrigins []string

	// Token gates /status and /metrics behind a static bearer token
	// when non-empty. /health stays open for probes.
	Token string
}

func New(name, addr string, opts Options, stats StatsSource, logger zerolog.Logger) *AdminServer {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	if len(opts.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.CorsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}
	observability.RegisterMetrics()

	var validator auth.Validator
	if opts.Token != "" {
		validator = auth.StaticToken{Token: opts.Token}
	}
	registerRoutes(r, name, stats, validator)
	return &AdminServer{name: name, addr: addr, router: r}
}

func requireBearer(validator auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || validator.Validate(strings.TrimSpace(token)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// Router exposes the underlying engine for tests.
func (s *AdminServer) Router() *gin.Engine {
	return s.router
}

func (s *AdminServer) Run() error {
	return s.router.Run(s.addr)
}
