package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
)

// SelectedImage is one locally addressable receipt image chosen by the user
type SelectedImage struct {
	URI      string // local handle, a filesystem path for FileEncoder
	FileName string
	MimeType string
	FileSize int64
}

// EncodedImage is a receipt ready for embedding in a JSON request
type EncodedImage struct {
	Data        string `json:"data"` // base64
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Encoder turns a selected image into base64 text. Implementations wrap
// whatever local I/O the platform provides.
type Encoder interface {
	Encode(ctx context.Context, image SelectedImage) (*EncodedImage, error)
}

// FileEncoder reads images from the local filesystem
type FileEncoder struct{}

// Encode reads the file behind the image URI and base64-encodes it.
// An unreadable or empty source fails with KindEncodingFailed.
func (FileEncoder) Encode(ctx context.Context, image SelectedImage) (*EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, Classify(err)
	}

	data, err := os.ReadFile(image.URI)
	if err != nil {
		return nil, &Error{
			Kind:    KindEncodingFailed,
			Message: fmt.Sprintf("failed to read %s: %v", image.URI, err),
			Err:     err,
		}
	}
	if len(data) == 0 {
		return nil, &Error{
			Kind:    KindEncodingFailed,
			Message: fmt.Sprintf("image %s is empty", image.URI),
		}
	}

	contentType := image.MimeType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return &EncodedImage{
		Data:        base64.StdEncoding.EncodeToString(data),
		Filename:    image.FileName,
		ContentType: contentType,
	}, nil
}
