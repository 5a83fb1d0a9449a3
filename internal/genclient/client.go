package genclient

import (
	"atelier/internal/entity"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ProgressFunc 在每张图片解析完成（或失败）时被调用一次。
// current 从 1 开始计数；回调之间相互独立，到达顺序没有保证。
type ProgressFunc func(current, total int, result ImageResult)

// ImageResult 是单张图片的结果：URL 或 data URI，失败时带错误。
type ImageResult struct {
	Image string
	Err   error
}

// Options configures a generation client.
type Options struct {
	Endpoint   string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// Client 是远程生成服务的无状态请求/响应封装。
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a generation client.
func New(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("generation endpoint is not configured")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 300 * time.Second}
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      strings.TrimSpace(opts.Model),
		httpClient: httpClient,
	}, nil
}

// 线上契约：宽高比作为提示词尾部指令传递，其余控制项走独立的
// options 对象。两条通道不能混用。
type wireInput struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

type wireOptions struct {
	Size      string  `json:"size,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
	MaxImages int     `json:"max_images"`
}

type wireRequest struct {
	Model   string      `json:"model"`
	Input   wireInput   `json:"input"`
	Options wireOptions `json:"options"`
}

type wireEnvelope struct {
	Data  []imagePayload `json:"data"`
	Error *apiError      `json:"error"`
}

// 流式事件：每帧携带一个结果项及其在批次中的位置。
type streamEvent struct {
	Current int
	Index   int
	Total   int
	Error   *apiError

	imagePayload
}

func (e *streamEvent) UnmarshalJSON(data []byte) error {
	var head struct {
		Current int       `json:"current"`
		Index   int       `json:"index"`
		Total   int       `json:"total"`
		Error   *apiError `json:"error"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	e.Current = head.Current
	e.Index = head.Index
	e.Total = head.Total
	e.Error = head.Error
	return e.imagePayload.UnmarshalJSON(data)
}

// GenerateImagesStream 以流式模式请求生成，逐项调用 onProgress。
// 返回的错误是请求级失败（此时可能没有任何回调发生过）。
func (c *Client) GenerateImagesStream(ctx context.Context, req entity.GenerateRequest, onProgress ProgressFunc) error {
	if c == nil {
		return NewError(KindUnknown, "generation client not initialised", nil)
	}

	payload := c.buildPayload(req)
	bs, err := json.Marshal(payload)
	if err != nil {
		return NewError(KindUnknown, err.Error(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bs))
	if err != nil {
		return NewError(KindUnknown, err.Error(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream, application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logrus.WithFields(logrus.Fields{
		"model":      payload.Model,
		"max_images": payload.Options.MaxImages,
		"size":       payload.Options.Size,
	}).Info("generation_request_start")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return NewError(KindNetwork, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return NewError(KindRemote, extractErrorMessage(resp.StatusCode, body), nil)
	}

	total := req.MaxImages
	if total <= 0 {
		total = 1
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		return c.consumeStream(resp.Body, total, onProgress)
	}
	return c.consumeEnvelope(resp.Body, total, onProgress)
}

// GenerateImages 是非流式入口，一次性返回整批结果。
func (c *Client) GenerateImages(ctx context.Context, req entity.GenerateRequest) ([]string, error) {
	images := make([]string, 0, req.MaxImages)
	var firstErr error
	err := c.GenerateImagesStream(ctx, req, func(current, total int, result ImageResult) {
		if result.Err != nil {
			if firstErr == nil {
				firstErr = result.Err
			}
			return
		}
		images = append(images, result.Image)
	})
	if err != nil {
		return nil, err
	}
	if len(images) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return images, nil
}

func (c *Client) buildPayload(req entity.GenerateRequest) wireRequest {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	return wireRequest{
		Model: model,
		Input: wireInput{
			Prompt:         entity.AnnotatePrompt(req.Prompt, req.AspectRatio),
			NegativePrompt: req.NegativePrompt,
		},
		Options: wireOptions{
			Size:      req.Size,
			Scale:     req.Scale,
			MaxImages: req.MaxImages,
		},
	}
}

// consumeStream 解析 SSE 帧。帧可能乱序到达，current 缺失时按到达
// 顺序补位。
func (c *Client) consumeStream(body io.Reader, total int, onProgress ProgressFunc) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	seen := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if raw == "" || raw == "[DONE]" {
			if raw == "[DONE]" {
				break
			}
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			logrus.WithError(err).Warn("generation_stream_bad_frame")
			continue
		}

		if event.Total > 0 {
			total = event.Total
		}
		seen++
		current := event.Current
		if current <= 0 && event.Index > 0 {
			current = event.Index
		}
		if current <= 0 {
			current = seen
		}

		if event.Error != nil && event.Error.Message != "" {
			onProgress(current, total, ImageResult{Err: NewError(KindRemote, event.Error.Message, nil)})
			continue
		}
		image := event.Normalize()
		if image == "" {
			// 既无图片也无错误信息的帧不产生回调，留日志可查
			logrus.WithFields(logrus.Fields{
				"current": current,
				"total":   total,
			}).Warn("generation_stream_empty_frame")
			continue
		}
		onProgress(current, total, ImageResult{Image: image})
	}
	if err := scanner.Err(); err != nil {
		return NewError(KindNetwork, err.Error(), err)
	}
	return nil
}

func (c *Client) consumeEnvelope(body io.Reader, total int, onProgress ProgressFunc) error {
	bs, err := io.ReadAll(body)
	if err != nil {
		return NewError(KindNetwork, err.Error(), err)
	}

	var envelope wireEnvelope
	if err := json.Unmarshal(bs, &envelope); err != nil {
		return NewError(KindRemote, extractErrorMessage(http.StatusOK, bs), err)
	}
	if envelope.Error != nil && envelope.Error.Message != "" {
		return NewError(KindRemote, envelope.Error.Message, nil)
	}
	if len(envelope.Data) == 0 {
		return NewError(KindRemote, "generation service returned no images", nil)
	}

	if len(envelope.Data) > 0 {
		total = len(envelope.Data)
	}
	for i, item := range envelope.Data {
		if item.ErrItem != nil {
			onProgress(i+1, total, ImageResult{Err: NewError(KindRemote, item.ErrItem.Message, nil)})
			continue
		}
		image := item.Normalize()
		if image == "" {
			onProgress(i+1, total, ImageResult{Err: NewError(KindRemote, "result item carried no image", nil)})
			continue
		}
		onProgress(i+1, total, ImageResult{Image: image})
	}
	return nil
}
