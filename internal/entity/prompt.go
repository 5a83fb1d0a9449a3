package entity

import "strings"

const aspectDirectivePrefix = " (aspect ratio: "

// AnnotatePrompt appends the aspect-ratio directive the generation service
// expects inside the prompt text. The stored prompt stays unmodified; the
// annotation only exists on the wire.
func AnnotatePrompt(prompt, aspectRatio string) string {
	ratio := strings.TrimSpace(aspectRatio)
	if ratio == "" {
		return prompt
	}
	return prompt + aspectDirectivePrefix + ratio + ")"
}

// StripPromptAnnotation is the inverse of AnnotatePrompt. It removes a
// trailing aspect-ratio directive if present and returns the prompt
// otherwise untouched.
func StripPromptAnnotation(prompt string) string {
	idx := strings.LastIndex(prompt, aspectDirectivePrefix)
	if idx < 0 {
		return prompt
	}
	rest := prompt[idx+len(aspectDirectivePrefix):]
	if !strings.HasSuffix(rest, ")") {
		return prompt
	}
	ratio := strings.TrimSuffix(rest, ")")
	if !isAspectRatio(ratio) {
		return prompt
	}
	return prompt[:idx]
}

func isAspectRatio(value string) bool {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return false
			}
		}
	}
	return true
}
