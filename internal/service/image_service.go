package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"path"
	"strings"
	"time"

	"vacancyhub/internal/config"
	"vacancyhub/internal/middleware"
	"vacancyhub/internal/models"
	"vacancyhub/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultImageMaxUploadSizeMB = 20
	// MasterMaxSize bounds the longest side of the stored poster.
	MasterMaxSize = 2048
	JPEGQuality   = 82
	WebPQuality   = 70

	// Telegram refuses photos outside these bounds.
	maxAspectRatio = 20
	// Header-declared pixel budget, checked before the full decode.
	maxSourcePixels = 50_000_000

	grantImagePrefix = "grants"
)

var acceptedFormats = map[string]bool{"jpeg": true, "png": true, "gif": true, "webp": true}

// ImageService turns uploaded grant posters into a JPEG master plus a WebP
// sibling in the configured object store.
type ImageService struct {
	store    storage.Store
	maxBytes int64
	now      func() time.Time
}

func NewImageService(store storage.Store, cfg *config.Config) *ImageService {
	mb := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		mb = cfg.ImageMaxUploadSizeMB
	}
	return &ImageService{store: store, maxBytes: int64(mb) << 20, now: time.Now}
}

// StoreGrantImage validates and re-encodes an upload and returns the master's
// object key. Nothing is stored when validation fails.
func (s *ImageService) StoreGrantImage(ctx context.Context, authorID uint, filename string, content []byte) (string, error) {
	if authorID == 0 {
		return "", models.NewValidationError("Invalid user")
	}
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes>>20))
	}

	src, err := decodePoster(content)
	if err != nil {
		middleware.Logger.InfoContext(ctx, "grant image rejected",
			slog.String("filename", filename), slog.String("reason", err.Error()))
		return "", err
	}

	master := flatten(resizeToFit(src, MasterMaxSize))
	var jpg, wp bytes.Buffer
	if err := jpeg.Encode(&jpg, master, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", models.NewInternalError(fmt.Errorf("encode jpeg: %w", err))
	}
	if err := webp.Encode(&wp, master, &webp.Options{Quality: WebPQuality}); err != nil {
		return "", models.NewInternalError(fmt.Errorf("encode webp: %w", err))
	}

	key := s.objectKey(authorID) + ".jpg"
	if err := s.store.Put(ctx, key, jpg.Bytes(), "image/jpeg"); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.store.Put(ctx, webpSibling(key), wp.Bytes(), "image/webp"); err != nil {
		_ = s.store.Delete(ctx, key)
		return "", models.NewInternalError(err)
	}
	return key, nil
}

func (s *ImageService) objectKey(authorID uint) string {
	return path.Join(grantImagePrefix, fmt.Sprint(authorID), s.now().UTC().Format("2006-01"), uuid.NewString())
}

// Discard removes a stored grant image and its WebP sibling.
func (s *ImageService) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	for _, k := range []string{key, webpSibling(key)} {
		if err := s.store.Delete(ctx, k); err != nil {
			middleware.Logger.WarnContext(ctx, "discard image failed", slog.String("key", k), slog.String("error", err.Error()))
		}
	}
}

// URL returns the public URL of a stored key.
func (s *ImageService) URL(key string) string {
	return s.store.URL(key)
}

func webpSibling(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + ".webp"
}

// decodePoster checks the declared dimensions from the header before paying
// for a full decode.
func decodePoster(content []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil || !acceptedFormats[format] {
		return nil, models.NewValidationError("Invalid image type")
	}
	w, h := cfg.Width, cfg.Height
	switch {
	case w <= 0 || h <= 0:
		return nil, models.NewValidationError("Invalid image file")
	case w*h > maxSourcePixels:
		return nil, models.NewValidationError("Image dimensions too large")
	case w > h*maxAspectRatio || h > w*maxAspectRatio:
		return nil, models.NewValidationError(fmt.Sprintf("Image aspect ratio must not exceed %d:1", maxAspectRatio))
	}

	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	return img, nil
}

// resizeToFit scales src down so its longest side is at most limit.
func resizeToFit(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if longest <= limit {
		return src
	}

	nw := max(w*limit/longest, 1)
	nh := max(h*limit/longest, 1)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// flatten composes src over white so transparent posters do not turn black in JPEG.
func flatten(src image.Image) image.Image {
	if opaque, ok := src.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Over)
	return dst
}
