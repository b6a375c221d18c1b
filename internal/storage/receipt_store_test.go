package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "report-1/receipt.jpg", ObjectPath("report-1", "receipt.jpg"))
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"receipt.jpg", "image/jpeg"},
		{"receipt.JPEG", "image/jpeg"},
		{"scan.png", "image/png"},
		{"scan.gif", "image/gif"},
		{"scan.bmp", "image/bmp"},
		{"photo.HEIC", "image/heic"},
		{"invoice.pdf", "application/pdf"},
		{"noextension", "application/octet-stream"},
		{"weird.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentTypeFor(tt.filename))
		})
	}
}
