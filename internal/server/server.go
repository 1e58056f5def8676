package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Config struct {
	ListenAddr string
	CORSOrigin string
}

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg Config, inv Inventory) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":3000"
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           NewRouter(inv, cfg.CORSOrigin),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func NewRouter(inv Inventory, corsOrigin string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())
	if corsOrigin != "" {
		router.Use(allowOrigin(corsOrigin))
	}

	h := NewHandlers(inv)
	router.GET("/healthz", h.Health)
	api := router.Group("/api")
	{
		api.GET("/ports", h.Ports)
		api.POST("/ports/refresh", h.Refresh)
		api.GET("/stats", h.Stats)
		api.POST("/kill/:pid", h.Kill)
	}
	return router
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
