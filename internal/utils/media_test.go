package utils

import (
	"encoding/base64"
	"testing"
)

func TestEnsureDataURL(t *testing.T) {
	if got := EnsureDataURL("QUJD"); got != "data:image/jpeg;base64,QUJD" {
		t.Errorf("EnsureDataURL() = %q", got)
	}
	already := "data:image/png;base64,QUJD"
	if got := EnsureDataURL(already); got != already {
		t.Errorf("data URL 不应被二次包装: %q", got)
	}
}

func TestSplitDataURL(t *testing.T) {
	mimeType, payload := SplitDataURL("data:image/png;base64,QUJD")
	if mimeType != "image/png" || payload != "QUJD" {
		t.Errorf("SplitDataURL() = %q, %q", mimeType, payload)
	}

	mimeType, payload = SplitDataURL("QUJD")
	if mimeType != "image/jpeg" || payload != "QUJD" {
		t.Errorf("裸 base64 应假定 jpeg: %q, %q", mimeType, payload)
	}
}

func TestDecodeMediaPayload(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	encoded := base64.StdEncoding.EncodeToString(pngHeader)

	data, ext, err := DecodeMediaPayload("data:image/png;base64," + encoded)
	if err != nil {
		t.Fatalf("DecodeMediaPayload: %v", err)
	}
	if ext != "png" {
		t.Errorf("ext = %q", ext)
	}
	if len(data) != len(pngHeader) {
		t.Errorf("data length = %d", len(data))
	}

	if _, _, err := DecodeMediaPayload(""); err == nil {
		t.Error("empty payload must fail")
	}
	if _, _, err := DecodeMediaPayload("not-base64!!!"); err == nil {
		t.Error("invalid base64 must fail")
	}
}

func TestExtensionFromMime(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpg"},
		{"image/webp", "webp"},
		{"image/png; charset=utf-8", "png"},
		{"application/pdf", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtensionFromMime(tt.mime); got != tt.want {
			t.Errorf("ExtensionFromMime(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
