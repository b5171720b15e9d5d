// Package api exposes the mind-map backend over HTTP: accounts, stored maps,
// credits and the metered AI proxy.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/toM7x7/LLM-mindmap/pkg/ai"
	"github.com/toM7x7/LLM-mindmap/pkg/auth"
	"github.com/toM7x7/LLM-mindmap/pkg/data"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
)

// Options wires the server to its collaborators.
type Options struct {
	Data        *data.DataManager
	Bridge      *ai.Bridge
	Issuer      auth.Issuer
	Verifier    auth.Verifier
	Health      func(ctx context.Context) error
	Logger      *log.Logger
	CORSOrigins []string
}

// Server holds the HTTP handlers of the backend.
type Server struct {
	data     *data.DataManager
	bridge   *ai.Bridge
	issuer   auth.Issuer
	verifier auth.Verifier
	health   func(ctx context.Context) error
	logger   *log.Logger
	origins  []string
	engine   *gin.Engine
}

// NewServer validates opts and registers the routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Data == nil {
		return nil, errors.New("data manager not initialized")
	}
	if opts.Bridge == nil {
		return nil, errors.New("AI bridge not initialized")
	}
	if opts.Issuer == nil || opts.Verifier == nil {
		return nil, errors.New("token issuer and verifier are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		data:     opts.Data,
		bridge:   opts.Bridge,
		issuer:   opts.Issuer,
		verifier: opts.Verifier,
		health:   opts.Health,
		logger:   opts.Logger,
		origins:  opts.CORSOrigins,
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.observe())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the LLM MindMap API"})
	})
	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/users/", s.createUser)
	r.POST("/token", s.login)

	authed := r.Group("/", s.authenticate())
	authed.GET("/users/me", s.getMe)
	authed.PUT("/users/me", s.updateMe)
	authed.DELETE("/users/me", s.deleteMe)

	authed.GET("/mindmaps/", s.listMindmaps)
	authed.POST("/mindmaps/", s.createMindmap)
	authed.GET("/mindmaps/:id", s.getMindmap)
	authed.PUT("/mindmaps/:id", s.updateMindmap)
	authed.DELETE("/mindmaps/:id", s.deleteMindmap)

	authed.GET("/credits/", s.getCredits)
	authed.POST("/credits/purchase", s.purchaseCredits)
	authed.GET("/credits/packages", s.listPackages)
	authed.GET("/credits/transactions", s.listTransactions)

	authed.POST("/ai/chat", s.aiChat)

	return r
}

// Engine returns the router without the CORS wrapper.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(s.engine)
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			s.logger.Warn(c.Request.Context(), "Health check failed", log.Fields{"error": err.Error()})
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
