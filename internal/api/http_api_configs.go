package api

import (
	"atelier/internal/entity"
	"atelier/internal/entity/common"
	"atelier/internal/genclient"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type apiConfigPayload struct {
	Name     string         `json:"name"`
	BaseURL  string         `json:"base_url"`
	APIKey   string         `json:"api_key"`
	Model    string         `json:"model"`
	IsActive *bool          `json:"is_active"`
	Extra    common.JSONMap `json:"extra"`
}

// ListAPIConfigs 返回全部端点配置，密钥做脱敏处理。
func (h *HTTPHandler) ListAPIConfigs(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	configs, err := h.st.ListAPIConfigs(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("failed to list api configs")
		InternalError(c, "failed to list endpoint configurations")
		return
	}

	for i := range configs {
		configs[i].APIKey = maskSecret(configs[i].APIKey)
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

// CreateAPIConfig 新建端点配置。is_active 为 true 时同时完成切换。
func (h *HTTPHandler) CreateAPIConfig(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	var payload apiConfigPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		InvalidPayload(c)
		return
	}
	if strings.TrimSpace(payload.BaseURL) == "" {
		MissingField(c, "base_url")
		return
	}

	cfg := entity.APIConfig{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(payload.Name),
		BaseURL: strings.TrimSpace(payload.BaseURL),
		APIKey:  strings.TrimSpace(payload.APIKey),
		Model:   strings.TrimSpace(payload.Model),
		Extra:   payload.Extra,
	}
	if payload.IsActive != nil {
		cfg.IsActive = *payload.IsActive
	}

	if err := h.st.PutAPIConfig(c.Request.Context(), &cfg); err != nil {
		logrus.WithError(err).Error("failed to create api config")
		InternalError(c, "failed to save endpoint configuration")
		return
	}

	if cfg.IsActive {
		if err := h.activateConfig(c, cfg.ID); err != nil {
			return
		}
	}

	cfg.APIKey = maskSecret(cfg.APIKey)
	c.JSON(http.StatusCreated, gin.H{"config": cfg})
}

// UpdateAPIConfig 局部更新端点配置。
func (h *HTTPHandler) UpdateAPIConfig(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		MissingField(c, "id")
		return
	}

	var payload struct {
		Name    *string         `json:"name"`
		BaseURL *string         `json:"base_url"`
		APIKey  *string         `json:"api_key"`
		Model   *string         `json:"model"`
		Extra   *common.JSONMap `json:"extra"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.APIConfigUpdates{
		Name:    payload.Name,
		BaseURL: payload.BaseURL,
		APIKey:  payload.APIKey,
		Model:   payload.Model,
		Extra:   payload.Extra,
	}
	if updates.IsEmpty() {
		BadRequest(c, ErrCodeInvalidRequest, "no updates provided")
		return
	}

	if err := h.st.UpdateAPIConfig(c.Request.Context(), id, updates); err != nil {
		logrus.WithError(err).WithField("config_id", id).Error("failed to update api config")
		InternalError(c, "failed to update endpoint configuration")
		return
	}

	// 正在生效的配置被改动后重建客户端
	active, err := h.st.GetActiveAPIConfig(c.Request.Context())
	if err == nil && active != nil && active.ID == id {
		h.rebuildGenerator(active)
	}

	c.JSON(http.StatusOK, gin.H{"updated": id})
}

// ActivateAPIConfig 切换生效的端点配置并重建生成客户端。
func (h *HTTPHandler) ActivateAPIConfig(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		MissingField(c, "id")
		return
	}

	if err := h.activateConfig(c, id); err != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"activated": id})
}

// DeleteAPIConfig 删除端点配置。
func (h *HTTPHandler) DeleteAPIConfig(c *gin.Context) {
	if h.st == nil {
		ServiceUnavailable(c, "store not configured")
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		MissingField(c, "id")
		return
	}

	if err := h.st.DeleteAPIConfig(c.Request.Context(), id); err != nil {
		logrus.WithError(err).WithField("config_id", id).Error("failed to delete api config")
		InternalError(c, "failed to delete endpoint configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// activateConfig 把目标配置标记为生效、取消其它配置，并重建生成客户端。
// 出错时已写入响应，调用方直接返回即可。
func (h *HTTPHandler) activateConfig(c *gin.Context, id string) error {
	ctx := c.Request.Context()

	target, err := h.st.GetAPIConfig(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeConfigNotFound, "endpoint configuration not found")
			return err
		}
		logrus.WithError(err).WithField("config_id", id).Error("failed to load api config")
		InternalError(c, "failed to load endpoint configuration")
		return err
	}

	configs, err := h.st.ListAPIConfigs(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list api configs")
		InternalError(c, "failed to list endpoint configurations")
		return err
	}

	active := true
	inactive := false
	for _, cfg := range configs {
		if cfg.ID == id || !cfg.IsActive {
			continue
		}
		if err := h.st.UpdateAPIConfig(ctx, cfg.ID, entity.APIConfigUpdates{IsActive: &inactive}); err != nil {
			logrus.WithError(err).WithField("config_id", cfg.ID).Error("failed to deactivate api config")
			InternalError(c, "failed to switch endpoint configuration")
			return err
		}
	}
	if err := h.st.UpdateAPIConfig(ctx, id, entity.APIConfigUpdates{IsActive: &active}); err != nil {
		logrus.WithError(err).WithField("config_id", id).Error("failed to activate api config")
		InternalError(c, "failed to switch endpoint configuration")
		return err
	}

	h.rebuildGenerator(target)
	return nil
}

// rebuildGenerator 用给定配置重建生成客户端。配置不完整时客户端
// 保持原样，只记日志。
func (h *HTTPHandler) rebuildGenerator(cfg *entity.APIConfig) {
	client, err := genclient.New(genclient.Options{
		Endpoint: cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
	})
	if err != nil {
		logrus.WithError(err).WithField("config_id", cfg.ID).Warn("cannot build generation client from config")
		return
	}
	h.orch.SetGenerator(client)
	logrus.WithFields(logrus.Fields{
		"config_id": cfg.ID,
		"model":     cfg.Model,
	}).Info("generation endpoint switched")
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		if value == "" {
			return ""
		}
		return "****"
	}
	return value[:4] + "****" + value[len(value)-4:]
}
