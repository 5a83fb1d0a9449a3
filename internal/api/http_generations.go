package api

import (
	"atelier/internal/entity"
	"atelier/internal/history"
	"atelier/internal/orchestrator"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StartGeneration 开启一个生成批次，占位记录立即可见。
func (h *HTTPHandler) StartGeneration(c *gin.Context) {
	var req entity.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	groupID, err := h.orch.Start(req)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrGenerationInFlight):
			Conflict(c, ErrCodeGenerationInFlight, "a generation is already in flight")
		case errors.Is(err, orchestrator.ErrNoGenerator):
			ServiceUnavailable(c, "no generation endpoint configured")
		default:
			BadRequest(c, ErrCodeInvalidRequest, err.Error())
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"group_id": groupID,
		"records":  h.orch.GroupRecords(groupID),
	})
}

// StopGeneration 协作式取消当前批次。
func (h *HTTPHandler) StopGeneration(c *gin.Context) {
	h.orch.Stop()
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

// ListGenerations 返回历史记录。支持 status、q 过滤，
// group_by=day 时按自然日分桶返回。
func (h *HTTPHandler) ListGenerations(c *gin.Context) {
	records := h.orch.Records()

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		records = history.FilterByStatus(records, entity.RecordStatus(status))
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		records = history.SearchPrompt(records, q)
	}

	if c.Query("group_by") == "day" {
		c.JSON(http.StatusOK, gin.H{
			"generating": h.orch.IsGenerating(),
			"days":       history.GroupByDay(records),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generating": h.orch.IsGenerating(),
		"records":    history.SortNewestFirst(records),
	})
}

// DeleteGeneration 删除单条记录。
func (h *HTTPHandler) DeleteGeneration(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		MissingField(c, "id")
		return
	}

	if err := h.orch.DeleteRecord(c.Request.Context(), id); err != nil {
		logrus.WithError(err).WithField("record_id", id).Error("failed to delete generation record")
		InternalError(c, "failed to delete record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// DeleteGenerationGroup 删除一个批次的全部记录。
func (h *HTTPHandler) DeleteGenerationGroup(c *gin.Context) {
	groupID := strings.TrimSpace(c.Param("id"))
	if groupID == "" {
		MissingField(c, "id")
		return
	}

	if err := h.orch.DeleteGroup(c.Request.Context(), groupID); err != nil {
		logrus.WithError(err).WithField("group_id", groupID).Error("failed to delete generation group")
		InternalError(c, "failed to delete group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": groupID})
}

// ClearGenerations 清空全部历史。
func (h *HTTPHandler) ClearGenerations(c *gin.Context) {
	if err := h.orch.ClearHistory(c.Request.Context()); err != nil {
		logrus.WithError(err).Error("failed to clear generation history")
		InternalError(c, "failed to clear history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// ArchiveGenerationGroup 把一个批次的成功图片批量归档到存储后端。
func (h *HTTPHandler) ArchiveGenerationGroup(c *gin.Context) {
	groupID := strings.TrimSpace(c.Param("id"))
	if groupID == "" {
		MissingField(c, "id")
		return
	}

	records := h.orch.GroupRecords(groupID)
	if len(records) == 0 {
		NotFound(c, ErrCodeRecordNotFound, "group not found")
		return
	}

	result, err := h.archiver.ArchiveRecords(c.Request.Context(), records)
	if err != nil {
		logrus.WithError(err).WithField("group_id", groupID).Error("archive group failed")
		ErrorResponse(c, http.StatusInternalServerError, ErrCodeArchiveFailed, err.Error())
		return
	}

	urls := make([]string, 0, len(result.Saved))
	for _, path := range result.Saved {
		urls = append(urls, h.publicURL(path))
	}

	c.JSON(http.StatusOK, gin.H{
		"saved":  urls,
		"errors": result.Errors,
	})
}
