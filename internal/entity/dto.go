package entity

// GenerateRequest is the request payload for starting a generation batch.
type GenerateRequest struct {
	Prompt         string  `json:"prompt" binding:"required"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	AspectRatio    string  `json:"aspect_ratio,omitempty"` // e.g. "16:9"
	Size           string  `json:"size,omitempty"`         // "2K" | "4K"
	Scale          float64 `json:"scale,omitempty"`
	MaxImages      int     `json:"max_images,omitempty"`
	Model          string  `json:"model,omitempty"`
}

// Normalize applies request defaults in place.
func (r *GenerateRequest) Normalize() {
	if r.MaxImages <= 0 {
		r.MaxImages = 1
	}
	if r.MaxImages > 8 {
		r.MaxImages = 8
	}
	if r.Size == "" {
		r.Size = "2K"
	}
	if r.Scale <= 0 {
		r.Scale = 2.5
	}
}
