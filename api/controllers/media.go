package controllers

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orderdeskhq/orderdesk-backend/api/middleware"
	"github.com/orderdeskhq/orderdesk-backend/api/responses"
	"github.com/orderdeskhq/orderdesk-backend/api/validators"
	"github.com/orderdeskhq/orderdesk-backend/pkg/config"
	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
	"github.com/orderdeskhq/orderdesk-backend/pkg/logger"
)

// ObjectSigner covers the storage operations the media endpoints need.
type ObjectSigner interface {
	DefaultBucket() string
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

type mediaPresignRequest struct {
	FileName string `json:"file_name" validate:"required"`
	MimeType string `json:"mime_type" validate:"required"`
}

type mediaPresignResponse struct {
	UploadURL string `json:"upload_url"`
	ReadURL   string `json:"read_url"`
	Path      string `json:"path"`
}

// MediaPresign returns a signed PUT URL for an order attachment upload.
func MediaPresign(signer ObjectSigner, cfg config.GCSConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if signer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload mediaPresignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fileName := path.Base(strings.TrimSpace(payload.FileName))
		if fileName == "" || fileName == "." || fileName == "/" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid file name"))
			return
		}

		object := fmt.Sprintf("attachments/%s/%s-%s", userID, uuid.NewString(), fileName)
		bucket := signer.DefaultBucket()

		uploadURL, err := signer.SignedURL(bucket, object, strings.TrimSpace(payload.MimeType), cfg.UploadURLExpiry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url"))
			return
		}

		readURL, err := signer.SignedReadURL(bucket, object, cfg.DownloadURLExpiry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign read url"))
			return
		}

		responses.WriteSuccess(w, mediaPresignResponse{
			UploadURL: uploadURL,
			ReadURL:   readURL,
			Path:      object,
		})
	}
}

// MediaDelete removes an uploaded object by its path.
func MediaDelete(signer ObjectSigner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if signer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storage unavailable"))
			return
		}

		object := strings.TrimSpace(r.URL.Query().Get("path"))
		if object == "" || strings.Contains(object, "..") {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "path is required"))
			return
		}

		if err := signer.DeleteObject(r.Context(), signer.DefaultBucket(), object); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object"))
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
