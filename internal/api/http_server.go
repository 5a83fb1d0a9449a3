package api

import (
	"atelier/internal/archive"
	"atelier/internal/config"
	"atelier/internal/orchestrator"
	"atelier/internal/storage"
	"atelier/internal/store"
	"fmt"
	"strings"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg               config.Config
	st                store.Store
	storage           storage.Storage
	storagePublicBase string

	orch     *orchestrator.Orchestrator
	archiver *archive.Archiver
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, st store.Store, orch *orchestrator.Orchestrator, storageBackend storage.Storage) *HTTPHandler {
	return &HTTPHandler{
		cfg:               cfg,
		st:                st,
		storage:           storageBackend,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		orch:              orch,
		archiver:          archive.New(storageBackend, cfg.ArchivePaceMillis),
	}
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

func (h *HTTPHandler) publicURL(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	base := h.storagePublicBase
	if base == "" {
		base = "/files"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(trimmed, "/"))
}
