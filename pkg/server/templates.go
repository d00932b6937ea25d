package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type templateRequest struct {
	Name string `json:"name"`
	Body string `json:"body" binding:"required"`
}

func (s *Server) listTemplates(c *gin.Context) {
	templates, err := s.templates.List()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (s *Server) createTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		// Let the chairman name it; fall back to a derived name on failure.
		generated, err := s.council.GenerateTemplateTitle(c.Request.Context(), req.Body)
		if err != nil || generated == "" {
			s.logger.Warn("template title generation failed", "error", err)
			name = derivedTemplateName(req.Body)
		} else {
			name = generated
		}
	}
	tpl, err := s.templates.Create(name, req.Body)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) getTemplate(c *gin.Context) {
	tpl, err := s.templates.Get(c.Param("id"))
	if err != nil {
		s.failLookup(c, err, "Template not found")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) updateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = derivedTemplateName(req.Body)
	}
	tpl, err := s.templates.Update(c.Param("id"), name, req.Body)
	if err != nil {
		s.failLookup(c, err, "Template not found")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) deleteTemplate(c *gin.Context) {
	if err := s.templates.Delete(c.Param("id")); err != nil {
		s.failLookup(c, err, "Template not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template deleted"})
}

// derivedTemplateName falls back to the first line of the body, capped.
func derivedTemplateName(body string) string {
	firstLine := body
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	firstLine = strings.TrimSpace(firstLine)
	if firstLine == "" {
		return "Untitled Template"
	}
	if len(firstLine) > 50 {
		firstLine = firstLine[:50]
	}
	return firstLine
}
