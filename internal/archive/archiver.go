package archive

import (
	"atelier/internal/entity"
	"atelier/internal/storage"
	"atelier/internal/utils"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// archiveCategory 是归档文件在存储后端下的顶层目录。
const archiveCategory = "archive"

// Result 汇总一次批量归档的结果。
type Result struct {
	Saved  []string `json:"saved"`
	Errors []string `json:"errors,omitempty"`
}

// Archiver 把一组生成记录的成功图片批量落盘到存储后端。
// 图片可能是远程 URL 也可能是内联 base64，逐张解析后保存，
// 相邻两次下载之间留有固定间隔。
type Archiver struct {
	storage    storage.Storage
	httpClient *http.Client
	pace       time.Duration
}

// New 创建归档器。paceMillis 为相邻下载的间隔毫秒数，小于 0 视为 0。
func New(st storage.Storage, paceMillis int) *Archiver {
	if paceMillis < 0 {
		paceMillis = 0
	}
	return &Archiver{
		storage:    st,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		pace:       time.Duration(paceMillis) * time.Millisecond,
	}
}

// ArchiveRecords 依次归档每条成功记录的图片。单条失败不终止整批，
// 失败原因收集在 Result.Errors 中。ctx 取消时立即返回已完成的部分。
func (a *Archiver) ArchiveRecords(ctx context.Context, records []entity.GenerationRecord) (Result, error) {
	var result Result
	if a == nil || a.storage == nil {
		return result, fmt.Errorf("archive: storage not configured")
	}

	archived := 0
	for _, rec := range records {
		if rec.Status != entity.StatusSuccess || strings.TrimSpace(rec.ImageURL) == "" {
			continue
		}

		if archived > 0 && a.pace > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(a.pace):
			}
		}

		path, err := a.archiveOne(ctx, rec)
		archived++
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logrus.WithError(err).WithField("record_id", rec.ID).Warn("archive record failed")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rec.ID, err))
			continue
		}
		result.Saved = append(result.Saved, path)
	}

	return result, nil
}

func (a *Archiver) archiveOne(ctx context.Context, rec entity.GenerationRecord) (string, error) {
	data, ext, err := a.resolveImagePayload(ctx, rec.ImageURL)
	if err != nil {
		return "", err
	}

	return a.storage.Save(ctx, data, storage.SaveOptions{
		Category:     archiveCategory,
		Extension:    ext,
		BaseName:     rec.ID,
		SkipIfExists: true,
	})
}

// resolveImagePayload 解析图片数据（URL 或 base64）
func (a *Archiver) resolveImagePayload(ctx context.Context, payload string) ([]byte, string, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, "", fmt.Errorf("empty payload")
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
		if err != nil {
			return nil, "", fmt.Errorf("create request: %w", err)
		}

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("download image: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("download image http %d", resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", fmt.Errorf("read image body: %w", err)
		}

		ext := utils.ExtensionFromMime(resp.Header.Get("Content-Type"))
		if ext == "" {
			ext = utils.ExtensionFromMime(http.DetectContentType(data))
		}
		if ext == "" {
			ext = "bin"
		}

		return data, ext, nil
	}

	return utils.DecodeMediaPayload(trimmed)
}
