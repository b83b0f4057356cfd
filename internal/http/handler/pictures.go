package handler

import (
	"io"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"user-service/internal/audit"
	"user-service/internal/auth"
	"user-service/internal/domain/user"
	"user-service/internal/types"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/validator"
)

type PictureHandler struct {
	store       PictureStore
	maxBytes    int64
	auditLogger types.AuditLogger
}

func NewPictureHandler(store PictureStore, maxBytes int64, auditLogger types.AuditLogger) *PictureHandler {
	return &PictureHandler{
		store:       store,
		maxBytes:    maxBytes,
		auditLogger: types.AuditOrNop(auditLogger),
	}
}

func (h *PictureHandler) UploadPicture(c echo.Context) error {
	identity, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(formFieldProfilePicture)
	if err != nil {
		return apperrors.BadRequest(msgPictureRequired)
	}

	f, err := fh.Open()
	if err != nil {
		return apperrors.BadRequest(msgPictureReadFailed)
	}
	defer f.Close()

	// One extra byte lets validator.Picture see an oversized upload.
	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return apperrors.BadRequest(msgPictureReadFailed)
	}

	contentType, err := validator.Picture(data, h.maxBytes)
	if err != nil {
		return apperrors.Validation(err.Error())
	}

	key := uuid.NewString()
	if err := h.store.PutPicture(c.Request().Context(), key, data, contentType, identity.Username); err != nil {
		h.auditLogger.LogError(c, identity.Username, audit.ResourceTypePicture, key, audit.ActionUpload, err)
		return apperrors.InternalServer(msgUploadPictureFailed, err)
	}

	h.auditLogger.LogFromContext(c, identity.Username, audit.ResourceTypePicture, key, audit.ActionUpload, audit.StatusSuccess, map[string]any{
		"content_type": contentType,
		"size":         len(data),
	})

	return respondCreated(c, user.UploadPictureResponse{PictureKey: key})
}

func (h *PictureHandler) GetDownloadURL(c echo.Context) error {
	key, err := uuid.Parse(c.Param(paramPictureKey))
	if err != nil {
		return apperrors.BadRequest(msgInvalidPictureKey)
	}

	ctx := c.Request().Context()

	exists, err := h.store.Exists(ctx, key.String())
	if err != nil {
		return apperrors.InternalServer(msgDownloadURLFailed, err)
	}
	if !exists {
		return apperrors.NotFound(msgPictureNotFound)
	}

	url, err := h.store.GeneratePresignedDownloadURL(ctx, key.String())
	if err != nil {
		return apperrors.InternalServer(msgDownloadURLFailed, err)
	}

	return respondOK(c, user.DownloadURLResponse{
		URL:       url,
		ExpiresIn: int64(h.store.PresignedURLExpiry().Seconds()),
	})
}
