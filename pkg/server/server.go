// Package server exposes the council over an HTTP API with JSON and SSE
// responses.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/llmcouncil/llmcouncil/pkg/council"
	"github.com/llmcouncil/llmcouncil/pkg/storage"
)

// Server wires the council and its stores into HTTP handlers.
type Server struct {
	council       *council.Council
	conversations *storage.ConversationStore
	templates     *storage.TemplateStore
	logger        *slog.Logger
}

// New constructs a Server.
func New(c *council.Council, conversations *storage.ConversationStore, templates *storage.TemplateStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		council:       c,
		conversations: conversations,
		templates:     templates,
		logger:        logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router(allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/", s.health)

	api := router.Group("/api")
	{
		api.GET("/conversations", s.listConversations)
		api.POST("/conversations", s.createConversation)
		api.GET("/conversations/:id", s.getConversation)
		api.DELETE("/conversations/:id", s.deleteConversation)
		api.POST("/conversations/:id/message", s.sendMessage)
		api.POST("/conversations/:id/message/stream", s.sendMessageStream)

		api.GET("/templates", s.listTemplates)
		api.POST("/templates", s.createTemplate)
		api.GET("/templates/:id", s.getTemplate)
		api.PUT("/templates/:id", s.updateTemplate)
		api.DELETE("/templates/:id", s.deleteTemplate)
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "LLM Council API"})
}
