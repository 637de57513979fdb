package media

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ErrUnsupportedImage is returned for anything that is not a raster photo.
var ErrUnsupportedImage = errors.New("only JPG, PNG, GIF and WEBP images are supported")

// SniffImage checks the filename extension and the leading bytes of an upload.
// It returns the detected content type and the canonical extension.
func SniffImage(filename string, head []byte) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", "", ErrUnsupportedImage
	}
	detected := http.DetectContentType(head)
	canonical, ok := allowedMime[detected]
	if !ok {
		return "", "", ErrUnsupportedImage
	}
	return detected, canonical, nil
}

// ObjectKey builds the storage key for a photo of an issue.
func ObjectKey(prefix, issueID, name, ext string) string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, issueID, name+ext)
	return strings.Join(parts, "/")
}
