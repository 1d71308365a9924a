package services

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
)

const thumbnailMaxDim = 200

// generateThumbnail decodes an image upload and writes a bounded JPEG
// thumbnail next to it. Aspect ratio is preserved.
func generateThumbnail(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	var img image.Image
	switch filepath.Ext(srcPath) {
	case ".png":
		img, err = png.Decode(src)
	case ".gif":
		img, err = gif.Decode(src)
	default:
		img, err = jpeg.Decode(src)
	}
	if err != nil {
		// Extension and content can disagree; fall back to sniffing.
		if _, seekErr := src.Seek(0, 0); seekErr != nil {
			return err
		}
		img, _, err = image.Decode(src)
		if err != nil {
			return err
		}
	}

	thumb := resize.Thumbnail(thumbnailMaxDim, thumbnailMaxDim, img, resize.Lanczos3)

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	return jpeg.Encode(dst, thumb, &jpeg.Options{Quality: 80})
}
