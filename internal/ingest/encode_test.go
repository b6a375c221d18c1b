package ingest

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileEncoder_Encode(t *testing.T) {
	tempDir := t.TempDir()
	encoder := FileEncoder{}

	t.Run("encodes file contents as base64", func(t *testing.T) {
		path := filepath.Join(tempDir, "receipt.jpg")
		require.NoError(t, os.WriteFile(path, []byte("jpeg bytes"), 0644))

		encoded, err := encoder.Encode(context.Background(), SelectedImage{
			URI:      path,
			FileName: "receipt.jpg",
			MimeType: "image/jpeg",
		})
		require.NoError(t, err)

		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg bytes")), encoded.Data)
		assert.Equal(t, "receipt.jpg", encoded.Filename)
		assert.Equal(t, "image/jpeg", encoded.ContentType)
	})

	t.Run("defaults content type to JPEG", func(t *testing.T) {
		path := filepath.Join(tempDir, "unknown")
		require.NoError(t, os.WriteFile(path, []byte("bytes"), 0644))

		encoded, err := encoder.Encode(context.Background(), SelectedImage{URI: path, FileName: "unknown"})
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", encoded.ContentType)
	})

	t.Run("missing file fails with encoding kind", func(t *testing.T) {
		_, err := encoder.Encode(context.Background(), SelectedImage{
			URI:      filepath.Join(tempDir, "does-not-exist.jpg"),
			FileName: "does-not-exist.jpg",
		})
		require.Error(t, err)
		assert.Equal(t, KindEncodingFailed, KindOf(err))
	})

	t.Run("empty file fails with encoding kind", func(t *testing.T) {
		path := filepath.Join(tempDir, "empty.jpg")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		_, err := encoder.Encode(context.Background(), SelectedImage{URI: path, FileName: "empty.jpg"})
		require.Error(t, err)
		assert.Equal(t, KindEncodingFailed, KindOf(err))
	})

	t.Run("cancelled context stops the read", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := encoder.Encode(ctx, SelectedImage{URI: "irrelevant"})
		assert.Error(t, err)
	})
}
