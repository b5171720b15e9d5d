package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/toM7x7/LLM-mindmap/pkg/data"
)

func (s *Server) listMindmaps(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		respondProblem(c, http.StatusBadRequest, "skip must be an integer")
		return
	}
	limit, err := queryInt(c, "limit", data.DefaultListLimit)
	if err != nil {
		respondProblem(c, http.StatusBadRequest, "limit must be an integer")
		return
	}

	mindmaps, err := s.data.MindmapManager.MindmapList(c.Request.Context(), currentUser(c).ID, skip, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mindmaps)
}

func (s *Server) createMindmap(c *gin.Context) {
	var req mindmapRequest
	if !bindJSON(c, &req) {
		return
	}

	mindmap, err := s.data.MindmapManager.MindmapAdd(c.Request.Context(), currentUser(c).ID, req.Title, req.Data)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mindmap)
}

func (s *Server) getMindmap(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	mindmap, err := s.data.MindmapManager.MindmapGet(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mindmap)
}

func (s *Server) updateMindmap(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req mindmapRequest
	if !bindJSON(c, &req) {
		return
	}

	mindmap, err := s.data.MindmapManager.MindmapUpdate(c.Request.Context(), currentUser(c).ID, id, req.Title, req.Data)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mindmap)
}

func (s *Server) deleteMindmap(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.data.MindmapManager.MindmapDelete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		respondProblem(c, http.StatusNotFound, "Mindmap not found")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
