package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Upload kinds
const (
	KindAvatar = "avatar"
	KindCover  = "cover"
	KindPost   = "post"
)

// allowed maps each accepted content type to its file extensions
var allowed = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
}

var ErrUnsupportedType = apierrors.UnsupportedMedia("only JPEG, PNG, WEBP and GIF images are accepted")

type UploadResult struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Uploader validates image uploads before storing them in a Backend
type Uploader struct {
	backend  Backend
	maxBytes int64
	now      func() time.Time
}

func NewUploader(backend Backend, maxBytes int64) *Uploader {
	return &Uploader{backend: backend, maxBytes: maxBytes, now: time.Now}
}

func (u *Uploader) Backend() Backend { return u.backend }

func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// TooLarge is the 413 returned for oversize files
func (u *Uploader) TooLarge() *apierrors.APIError {
	return apierrors.PayloadTooLarge(fmt.Sprintf("file exceeds %d MB", u.maxBytes>>20))
}

// fileName builds timestamp-random.ext
func (u *Uploader) fileName(ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s%s", u.now().UnixMilli(), random, ext)
}

// detect sniffs the content type and checks the extension agrees with it
func detect(data []byte, filename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType := mimetype.Detect(data).String()
	exts, ok := allowed[contentType]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	for _, e := range exts {
		if e == ext {
			return contentType, ext, nil
		}
	}
	return "", "", ErrUnsupportedType
}

// Store validates and stores raw image bytes
func (u *Uploader) Store(ctx context.Context, userID, kind, filename string, data []byte) (*UploadResult, error) {
	switch kind {
	case KindAvatar, KindCover, KindPost:
	case "":
		kind = KindPost
	default:
		return nil, apierrors.ValidationError("kind", "kind must be avatar, cover or post")
	}
	if len(data) == 0 {
		return nil, apierrors.ValidationError("file", "file is empty")
	}
	if int64(len(data)) > u.maxBytes {
		return nil, u.TooLarge()
	}
	contentType, ext, err := detect(data, filename)
	if err != nil {
		return nil, err
	}

	name := u.fileName(ext)
	putCtx, span := telemetry.StartClientSpan(ctx, "storage", "put",
		attribute.String("upload.kind", kind),
		attribute.String("upload.content_type", contentType),
		attribute.Int("upload.bytes", len(data)))
	url, err := u.backend.Put(putCtx, name, contentType, data)
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}
	metrics.App().UploadsTotal.WithLabelValues(kind, contentType).Inc()
	logger.Log.Info("Image uploaded",
		logger.WithUserID(userID),
		zap.String("kind", kind),
		zap.String("name", name),
		zap.Int("bytes", len(data)))
	return &UploadResult{URL: url, Name: name, ContentType: contentType, Size: int64(len(data))}, nil
}

// StoreMultipart reads a multipart file, refusing anything over the limit
// without buffering it whole.
func (u *Uploader) StoreMultipart(ctx context.Context, userID, kind string, fh *multipart.FileHeader) (*UploadResult, error) {
	if fh.Size > u.maxBytes {
		return nil, u.TooLarge()
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apierrors.BadRequest("unreadable upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, u.maxBytes+1))
	if err != nil {
		return nil, apierrors.BadRequest("unreadable upload")
	}
	return u.Store(ctx, userID, kind, fh.Filename, data)
}

// Remove deletes a previously stored file given its public URL. URLs that
// this server did not issue are ignored.
func (u *Uploader) Remove(ctx context.Context, url string) error {
	name, ok := u.backend.NameFromURL(url)
	if !ok {
		return nil
	}
	return u.backend.Delete(ctx, name)
}
