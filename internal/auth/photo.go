package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ferrianes/foodmarket-backend/internal/validate"
)

const (
	maxPhotoBytes = 2 << 20
	photoDir      = "assets/user"

	// 512 bytes is the maximum http.DetectContentType reads.
	sniffLen = 512
)

var (
	ErrPhotoTooLarge     = errors.New("may not be greater than 2048 kilobytes")
	ErrNotAnImage        = errors.New("must be an image")
	ErrExtensionMismatch = errors.New("extension does not match the file content")
)

var imageExtensions = map[string][]string{
	"image/jpeg":    {".jpg", ".jpeg"},
	"image/png":     {".png"},
	"image/gif":     {".gif"},
	"image/bmp":     {".bmp"},
	"image/webp":    {".webp"},
	"image/svg+xml": {".svg"},
}

// PhotoStorage stores profile photos outside of the database.
type PhotoStorage interface {
	Save(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// Upload is a file sent by a client. Content is nil if no file was sent.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// detectContentType sniffs the media type of the upload and rewinds it.
func detectContentType(r io.ReadSeeker) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	head = head[:n]

	_, err = r.Seek(0, io.SeekStart)
	if err != nil {
		return "", err
	}

	// http.DetectContentType doesn't know about SVG, it reports text/xml or text/plain.
	if isSVG(head) {
		return "image/svg+xml", nil
	}

	ct, _, _ := strings.Cut(http.DetectContentType(head), ";")
	return ct, nil
}

func isSVG(head []byte) bool {
	trimmed := bytes.TrimSpace(head)
	if !bytes.HasPrefix(trimmed, []byte("<svg")) && !bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return false
	}
	return bytes.Contains(trimmed, []byte("<svg"))
}

func photoRules(up Upload, contentType string) []validate.Rule {
	ext := strings.ToLower(filepath.Ext(up.Filename))

	return []validate.Rule{
		{
			Field: "file",
			Check: func() bool { return up.Content != nil },
			Err:   validate.ErrRequired,
		},
		{
			Field: "file",
			Check: func() bool { return up.Size <= maxPhotoBytes },
			Err:   ErrPhotoTooLarge,
		},
		{
			Field: "file",
			Check: func() bool {
				_, ok := imageExtensions[contentType]
				return ok
			},
			Err: ErrNotAnImage,
		},
		{
			Field: "file",
			Check: func() bool { return slices.Contains(imageExtensions[contentType], ext) },
			Err:   ErrExtensionMismatch,
		},
	}
}

// photoPath returns a new random storage path for a photo of the given type.
func photoPath(name string, contentType string) string {
	return photoDir + "/" + name + imageExtensions[contentType][0]
}
