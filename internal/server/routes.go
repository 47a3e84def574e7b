package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/cnl/internal/logs"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	{
		v1.POST("/parse", s.handleParse)
		v1.POST("/chain", s.handleChain)
		v1.POST("/predict", s.handlePredict)
		v1.POST("/check", s.handleCheck)
		v1.GET("/tactics", s.handleTactics)
		v1.GET("/documents", s.handleDocuments)
		v1.GET("/documents/:id", s.handleDocument)
		v1.GET("/ws", s.handleWebSocket)
	}
	return r
}

// observe tags the request context with an ID and records metrics.
func (s *Server) observe(c *gin.Context) {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Header("X-Request-ID", id)
	c.Request = c.Request.WithContext(logs.WithRequest(c.Request.Context(), id))

	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	s.metrics.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	s.metrics.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
