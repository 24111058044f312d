// Package apiserver implements the HTTP surface (A4): the gin-routed REST
// API spec.md §6 describes, sitting in front of the request orchestrator.
package apiserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/firasghr/GoSessionEngine/config"
	"github.com/firasghr/GoSessionEngine/errs"
	"github.com/firasghr/GoSessionEngine/logger"
	"github.com/firasghr/GoSessionEngine/orchestrator"
	"github.com/firasghr/GoSessionEngine/session"
)

// Server wraps a gin.Engine and an *http.Server configured with
// conservative read, write, idle and header timeouts.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	log        *logger.Logger
}

// New builds a Server bound to the engine/registry pair, listening on
// cfg.Port once Start is called. gatherer backs the unauthenticated
// /metrics scrape endpoint.
func New(cfg *config.Config, eng *orchestrator.Engine, registry *session.Registry, log *logger.Logger, gatherer prometheus.Gatherer) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{engine: router, log: log}
	s.routes(cfg, eng, registry, gatherer)

	s.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       10 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 19,
	}
	return s
}

// routes registers spec.md §6's endpoint table.
func (s *Server) routes(cfg *config.Config, eng *orchestrator.Engine, registry *session.Registry, gatherer prometheus.Gatherer) {
	s.engine.GET("/health", healthHandler(cfg, registry))
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authed := s.engine.Group("/")
	authed.Use(apiKeyMiddleware(cfg.APIKey))
	authed.POST("/proxy/request", requestHandler(eng))
	authed.POST("/proxy/session/create", sessionCreateHandler(registry))
	authed.DELETE("/proxy/session/:id", sessionDeleteHandler(registry))
	authed.GET("/proxy/session/:id/cookies", sessionCookiesHandler(registry))
}

// Start blocks serving HTTP until the server is shut down or fails.
func (s *Server) Start() error {
	s.log.Infof("apiserver: listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(cfg *config.Config, registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"active_sessions": registry.Count(),
			"max_sessions":    cfg.MaxSessions,
		})
	}
}

func requestHandler(eng *orchestrator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orchestrator.RequestDescriptor
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorEnvelope("bad_request", "malformed request descriptor: "+err.Error()))
			return
		}

		resp, err := eng.Execute(c.Request.Context(), req)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func sessionCreateHandler(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := registry.Create()
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": sess.Handle,
			"message":    "session created",
		})
	}
}

func sessionDeleteHandler(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !registry.Delete(id) {
			c.JSON(http.StatusNotFound, errorEnvelope("session_not_found", "no session with handle "+id))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": id,
			"message":    "session deleted",
		})
	}
}

func sessionCookiesHandler(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		cookies, err := registry.Cookies(id)
		if err != nil {
			writeEngineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": id,
			"cookies":    cookies,
		})
	}
}

// writeEngineError maps an *errs.Error to spec.md §7's status/envelope
// contract. A non-*errs.Error is treated as an internal failure.
func writeEngineError(c *gin.Context, err error) {
	var e *errs.Error
	if errs.As(err, &e) {
		c.JSON(e.Kind.Status(), errorEnvelope(string(e.Kind), e.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, errorEnvelope("internal", err.Error()))
}
