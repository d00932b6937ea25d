package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmcouncil/llmcouncil/pkg/council"
	"github.com/llmcouncil/llmcouncil/pkg/event"
	"github.com/llmcouncil/llmcouncil/pkg/model"
	"github.com/llmcouncil/llmcouncil/pkg/storage"
)

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) listConversations(c *gin.Context) {
	summaries, err := s.conversations.List()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) createConversation(c *gin.Context) {
	conv, err := s.conversations.Create()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) getConversation(c *gin.Context) {
	conv, err := s.conversations.Get(c.Param("id"))
	if err != nil {
		s.failLookup(c, err, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) deleteConversation(c *gin.Context) {
	if err := s.conversations.Delete(c.Param("id")); err != nil {
		s.failLookup(c, err, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Conversation deleted"})
}

// sendMessage runs the full pipeline and returns every stage in one JSON
// response.
func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	id := c.Param("id")
	conv, err := s.conversations.Get(id)
	if err != nil {
		s.failLookup(c, err, "Conversation not found")
		return
	}
	firstMessage := len(conv.Messages) == 0
	history := conversationHistory(conv)

	if err := s.conversations.AppendUserMessage(id, req.Content); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if firstMessage {
		if title, err := s.council.GenerateTitle(c.Request.Context(), req.Content); err == nil && title != "" {
			if err := s.conversations.UpdateTitle(id, title); err != nil {
				s.logger.Warn("title update failed", "conversation", id, "error", err)
			}
		}
	}

	run, err := s.council.Run(c.Request.Context(), req.Content, history)
	if err != nil {
		s.fail(c, http.StatusBadGateway, err)
		return
	}
	if err := s.conversations.AppendAssistantMessage(id, run); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stage1": run.Stage1,
		"stage2": run.Stage2,
		"stage3": run.Stage3,
		"metadata": gin.H{
			"label_to_model":     run.LabelToModel,
			"aggregate_rankings": run.Aggregate,
		},
	})
}

// sendMessageStream runs the pipeline incrementally, forwarding each stage
// event over SSE as it completes.
func (s *Server) sendMessageStream(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	id := c.Param("id")
	conv, err := s.conversations.Get(id)
	if err != nil {
		s.failLookup(c, err, "Conversation not found")
		return
	}
	firstMessage := len(conv.Messages) == 0
	history := conversationHistory(conv)

	if err := s.conversations.SetProcessing(id, true); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if err := s.conversations.AppendUserMessage(id, req.Content); err != nil {
		s.conversations.SetProcessing(id, false)
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	ctx := c.Request.Context()
	opts := council.StreamOptions{
		GenerateTitle: firstMessage,
		Checkpoint: func(ctx context.Context, stage council.Stage) error {
			// The store must still hold the conversation before each stage
			// commits more model spend to it.
			_, err := s.conversations.Get(id)
			return err
		},
		Finalize: func(ctx context.Context, run *council.PipelineRun) error {
			if err := s.conversations.AppendAssistantMessage(id, run); err != nil {
				return err
			}
			return s.conversations.SetProcessing(id, false)
		},
	}

	stream := event.NewStream(c.Writer)
	for evt := range s.council.Stream(ctx, req.Content, history, opts) {
		switch evt.Type {
		case event.TitleComplete:
			if payload, ok := evt.Data.(council.TitlePayload); ok {
				if err := s.conversations.UpdateTitle(id, payload.Title); err != nil {
					s.logger.Warn("title update failed", "conversation", id, "error", err)
				}
			}
		case event.Error:
			if err := s.conversations.SetProcessing(id, false); err != nil {
				s.logger.Warn("processing reset failed", "conversation", id, "error", err)
			}
		}
		if err := stream.Send(evt); err != nil {
			s.logger.Warn("stream send failed", "conversation", id, "error", err)
			return
		}
		if evt.Terminal() {
			return
		}
	}
}

// conversationHistory maps stored turns onto model messages. Assistant turns
// contribute only the synthesized answer.
func conversationHistory(conv *storage.Conversation) []model.Message {
	history := make([]model.Message, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		switch msg.Role {
		case model.RoleUser:
			history = append(history, model.User(msg.Content))
		case model.RoleAssistant:
			history = append(history, model.Assistant(msg.Content))
		}
	}
	return history
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(status, gin.H{"detail": err.Error()})
}

func (s *Server) failLookup(c *gin.Context, err error, detail string) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": detail})
		return
	}
	s.fail(c, http.StatusInternalServerError, err)
}
