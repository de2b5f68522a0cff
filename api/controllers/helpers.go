package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/orderdeskhq/orderdesk-backend/pkg/errors"
)

const (
	maxSheetUploadBytes = 10 << 20
	sheetContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func parsePathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", param)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s", param))
	}
	return id, nil
}

func openUploadedSheet(r *http.Request) (multipart.File, error) {
	if err := r.ParseMultipartForm(maxSheetUploadBytes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload")
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field is required")
	}
	return file, nil
}

func writeSheet(w http.ResponseWriter, filename string, payload []byte) {
	w.Header().Set("Content-Type", sheetContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
