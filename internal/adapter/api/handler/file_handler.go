package handler

import (
	stderrors "errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"emprende/internal/domain/entity"
	"emprende/internal/usecase"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
	"emprende/pkg/response"
)

type FileHandler struct {
	fileUseCase *usecase.FileUseCase
}

func NewFileHandler(fileUseCase *usecase.FileUseCase) *FileHandler {
	return &FileHandler{
		fileUseCase: fileUseCase,
	}
}

func (h *FileHandler) UploadImage(c echo.Context) error {
	uid := getUserIDFromContext(c)

	img, closer, err := imageFromForm(c, "file")
	if err != nil {
		return response.Error(c, err)
	}
	if img == nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", nil))
	}
	defer closer.Close()

	folder := sanitizeFolderName(c.FormValue("folder"))
	logger.Debug("Upload requested by %s into %s (%d bytes, %s)", uid, folder, img.Size, img.ContentType)

	metadata, err := h.fileUseCase.UploadImage(c.Request().Context(), uid, img, folder, entity.FileEntityUpload, uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, metadata)
}

func (h *FileHandler) ListUploads(c echo.Context) error {
	files, err := h.fileUseCase.ListUploads(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, files)
}

func (h *FileHandler) DeleteUpload(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.Error(c, errors.BadRequest("File ID is required", nil))
	}

	if err := h.fileUseCase.DeleteUpload(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "File deleted"})
}

func getUserIDFromContext(c echo.Context) string {
	if uid, ok := c.Get("uid").(string); ok {
		return uid
	}
	return ""
}

// imageFromForm opens the multipart file in field. A missing field, or a body that is not
// multipart at all, yields a nil image and no error so that callers can report it in their own
// validation order.
func imageFromForm(c echo.Context, field string) (*usecase.ImageUpload, io.Closer, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if stderrors.Is(err, http.ErrMissingFile) || stderrors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, errors.BadRequest("Missing or invalid file", err)
	}

	src, err := file.Open()
	if err != nil {
		return nil, nil, errors.Internal("Unable to read file", err)
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, 512)
		n, _ := src.Read(head)
		contentType = http.DetectContentType(head[:n])
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			src.Close()
			return nil, nil, errors.Internal("Unable to read file", err)
		}
	}

	return &usecase.ImageUpload{
		Reader:      src,
		ContentType: contentType,
		Size:        file.Size,
	}, src, nil
}

func sanitizeFolderName(folder string) string {
	folder = filepath.Base(folder)

	validChars := []rune{}
	for _, char := range folder {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			validChars = append(validChars, char)
		}
	}

	sanitized := string(validChars)
	if sanitized == "" {
		return "uploads"
	}

	return sanitized
}
