package api

import (
	"atelier/internal/entity"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GetSetting 读取一个标量设置。键不存在时返回缺省值，
// 缺省值不会被隐式写入存储。
func (h *HTTPHandler) GetSetting(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		MissingField(c, "key")
		return
	}

	value, ok, err := h.st.GetSetting(c.Request.Context(), key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("failed to read setting")
		InternalError(c, "failed to read setting")
		return
	}
	if !ok {
		value = entity.DefaultSetting(key)
	}

	c.JSON(http.StatusOK, gin.H{
		"key":     key,
		"value":   value,
		"stored":  ok,
		"default": entity.DefaultSetting(key),
	})
}

// PutSetting 写入一个标量设置。
func (h *HTTPHandler) PutSetting(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		MissingField(c, "key")
		return
	}

	var payload struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		InvalidPayload(c)
		return
	}

	if err := h.st.PutSetting(c.Request.Context(), key, payload.Value); err != nil {
		logrus.WithError(err).WithField("key", key).Error("failed to save setting")
		InternalError(c, "failed to save setting")
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": payload.Value})
}

// DeleteSetting 删除一个标量设置，之后读取回落到缺省值。
func (h *HTTPHandler) DeleteSetting(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		MissingField(c, "key")
		return
	}

	if err := h.st.DeleteSetting(c.Request.Context(), key); err != nil {
		logrus.WithError(err).WithField("key", key).Error("failed to delete setting")
		InternalError(c, "failed to delete setting")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": key})
}
