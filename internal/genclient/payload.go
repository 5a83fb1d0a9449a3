package genclient

import (
	"atelier/internal/utils"
	"encoding/json"
	"fmt"
	"strings"
)

// imagePayload 是响应中的单个结果项。base64 字段名没有契约保证，
// 需要容忍历史上出现过的所有写法。
type imagePayload struct {
	URL     string
	Base64  string
	ErrItem *apiError
}

func (p *imagePayload) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		p.URL = url
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	if v, ok := payload["url"].(string); ok {
		p.URL = v
	}
	if v, ok := payload["image_url"].(string); ok && p.URL == "" {
		p.URL = v
	}
	for _, field := range []string{"b64_json", "base64", "image_base64", "base64_data", "data"} {
		if p.Base64 != "" {
			break
		}
		if v, ok := payload[field].(string); ok && v != "" {
			p.Base64 = v
		}
	}
	if raw, ok := payload["error"]; ok && raw != nil {
		if bs, err := json.Marshal(raw); err == nil {
			var apiErr apiError
			if json.Unmarshal(bs, &apiErr) == nil && apiErr.Message != "" {
				p.ErrItem = &apiErr
			}
		}
	}

	return nil
}

// Normalize returns the image reference: a URL as-is, or inline base64
// coerced into a data URI.
func (p imagePayload) Normalize() string {
	if url := strings.TrimSpace(p.URL); url != "" {
		return url
	}
	if b64 := strings.TrimSpace(p.Base64); b64 != "" {
		return utils.EnsureDataURL(b64)
	}
	return ""
}

type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *apiError) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var msg string
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		e.Message = msg
		return nil
	}
	type plain apiError
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = apiError(p)
	return nil
}

// extractErrorMessage pulls the best available message out of an error
// body, falling back to a generic status-code message.
func extractErrorMessage(status int, body []byte) string {
	var envelope struct {
		Error   *apiError `json:"error"`
		Message string    `json:"message"`
		Msg     string    `json:"msg"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil && strings.TrimSpace(envelope.Error.Message) != "" {
			return strings.TrimSpace(envelope.Error.Message)
		}
		if strings.TrimSpace(envelope.Message) != "" {
			return strings.TrimSpace(envelope.Message)
		}
		if strings.TrimSpace(envelope.Msg) != "" {
			return strings.TrimSpace(envelope.Msg)
		}
	}
	return fmt.Sprintf("generation service http %d", status)
}
