package api

import (
	"atelier/internal/entity"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ListChatSessions 返回全部对话会话。
func (h *HTTPHandler) ListChatSessions(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	sessions, err := h.st.ListChatSessions(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("failed to list chat sessions")
		InternalError(c, "failed to list chat sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// PutChatSession 写入（新建或覆盖）一条会话。
func (h *HTTPHandler) PutChatSession(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	var session entity.ChatSession
	if err := c.ShouldBindJSON(&session); err != nil {
		InvalidPayload(c)
		return
	}
	if strings.TrimSpace(session.ID) == "" {
		session.ID = uuid.NewString()
	}

	if err := h.st.PutChatSession(c.Request.Context(), &session); err != nil {
		logrus.WithError(err).WithField("session_id", session.ID).Error("failed to save chat session")
		InternalError(c, "failed to save chat session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DeleteChatSession 删除一条会话，不存在时也返回成功。
func (h *HTTPHandler) DeleteChatSession(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		MissingField(c, "id")
		return
	}

	if err := h.st.DeleteChatSession(c.Request.Context(), id); err != nil {
		logrus.WithError(err).WithField("session_id", id).Error("failed to delete chat session")
		InternalError(c, "failed to delete chat session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ListAgents 返回全部自定义预设。
func (h *HTTPHandler) ListAgents(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	agents, err := h.st.ListAgents(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("failed to list agents")
		InternalError(c, "failed to list agents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// PutAgent 写入（新建或覆盖）一条预设。
func (h *HTTPHandler) PutAgent(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	var agent entity.Agent
	if err := c.ShouldBindJSON(&agent); err != nil {
		InvalidPayload(c)
		return
	}
	if strings.TrimSpace(agent.Name) == "" {
		MissingField(c, "name")
		return
	}
	if strings.TrimSpace(agent.ID) == "" {
		agent.ID = uuid.NewString()
	}

	if err := h.st.PutAgent(c.Request.Context(), &agent); err != nil {
		logrus.WithError(err).WithField("agent_id", agent.ID).Error("failed to save agent")
		InternalError(c, "failed to save agent")
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

// DeleteAgent 删除一条预设。
func (h *HTTPHandler) DeleteAgent(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		MissingField(c, "id")
		return
	}

	if err := h.st.DeleteAgent(c.Request.Context(), id); err != nil {
		logrus.WithError(err).WithField("agent_id", id).Error("failed to delete agent")
		InternalError(c, "failed to delete agent")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
