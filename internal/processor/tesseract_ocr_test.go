package processor

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
)

func TestNormalizeBoxFlipsToBottomLeftOrigin(t *testing.T) {
	// 1000x1000 image, line near the top-left
	box := normalizeBox(image.Rect(195, 25, 495, 55), 1000, 1000)

	assert.InDelta(t, 0.195, box.X, 1e-9)
	assert.InDelta(t, 0.945, box.Y, 1e-9)
	assert.InDelta(t, 0.3, box.Width, 1e-9)
	assert.InDelta(t, 0.03, box.Height, 1e-9)
	assert.True(t, box.InUnitSquare())
}

func TestNormalizeBoxClampsAndGuards(t *testing.T) {
	box := normalizeBox(image.Rect(-10, -10, 1200, 900), 1000, 800)
	assert.True(t, box.InUnitSquare())
	assert.Equal(t, BoundingBox{}, normalizeBox(image.Rect(0, 0, 1, 1), 0, 0))
}

func TestTesseractUnreadableImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewTesseractOCR(nil).Recognize(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorImageUnreadable, errors.CodeOf(err))
}
