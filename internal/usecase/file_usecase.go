package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"emprende/internal/domain/entity"
	"emprende/internal/domain/repository"
	"emprende/internal/domain/service"
	"emprende/internal/infrastructure/ratelimit"
	"emprende/internal/infrastructure/storage"
	"emprende/pkg/errors"
	"emprende/pkg/logger"
)

// ImageUpload is an image received from a client, typically a multipart file.
type ImageUpload struct {
	Reader      io.Reader
	ContentType string
	Size        int64
}

type FileUseCase struct {
	uploader service.ImageUploadService
	fileRepo repository.FileMetadataRepository
	limiter  RateLimiter
	maxBytes int64
}

func NewFileUseCase(uploader service.ImageUploadService, fileRepo repository.FileMetadataRepository, limiter RateLimiter, maxBytes int64) *FileUseCase {
	return &FileUseCase{
		uploader: uploader,
		fileRepo: fileRepo,
		limiter:  limiter,
		maxBytes: maxBytes,
	}
}

func (uc *FileUseCase) MaxBytes() int64 {
	return uc.maxBytes
}

func (uc *FileUseCase) CheckImage(img *ImageUpload) error {
	if img == nil || img.Reader == nil {
		return errors.BadRequest("No image provided", nil)
	}
	if !storage.IsAllowedImageType(img.ContentType) {
		return errors.BadRequest("Invalid file type. Allowed types: JPEG, PNG, GIF, WEBP", nil)
	}
	if img.Size > uc.maxBytes {
		return errors.BadRequest(fmt.Sprintf("File too large. Maximum size is %dMB", uc.maxBytes>>20), nil)
	}
	return nil
}

// UploadImage stores the image with the media provider and records its metadata.
func (uc *FileUseCase) UploadImage(ctx context.Context, userID string, img *ImageUpload, folder, entityType, entityID string) (*entity.FileMetadata, error) {
	if ok, wait := uc.limiter.Allow(userID, ratelimit.ActionUploadImage); !ok {
		return nil, errors.TooManyRequests("Too many uploads", wait)
	}
	if err := uc.CheckImage(img); err != nil {
		return nil, err
	}

	result, err := uc.uploader.UploadImage(ctx, io.LimitReader(img.Reader, uc.maxBytes), img.ContentType, folder)
	if err != nil {
		logger.Error("UploadImage Error: upload for %s failed: %v", userID, err)
		return nil, errors.Unavailable("Failed to upload image", err)
	}

	metadata := &entity.FileMetadata{
		ID:         uuid.New().String(),
		URL:        result.URL,
		ObjectName: result.ObjectName,
		Provider:   result.Provider,
		EntityType: entityType,
		EntityID:   entityID,
		UploadedBy: userID,
		FileType:   img.ContentType,
		FileSize:   result.Size,
		CreatedAt:  time.Now().UTC(),
	}

	if err := uc.fileRepo.Create(ctx, metadata); err != nil {
		if delErr := uc.uploader.DeleteImage(ctx, result.ObjectName); delErr != nil {
			logger.Error("UploadImage Error: orphaned image %s: %v", result.ObjectName, delErr)
		}
		return nil, err
	}

	return metadata, nil
}

// Discard deletes an uploaded image whose owning write failed.
func (uc *FileUseCase) Discard(ctx context.Context, metadata *entity.FileMetadata) {
	if metadata == nil {
		return
	}
	if err := uc.uploader.DeleteImage(ctx, metadata.ObjectName); err != nil {
		logger.Error("Discard Error: failed to delete image %s: %v", metadata.ObjectName, err)
	}
	if err := uc.fileRepo.Delete(ctx, metadata.ID); err != nil {
		logger.Error("Discard Error: failed to delete file metadata %s: %v", metadata.ID, err)
	}
}

// DiscardURL deletes the image stored at url, if this service uploaded it.
func (uc *FileUseCase) DiscardURL(ctx context.Context, url string) {
	if url == "" {
		return
	}
	metadata, err := uc.fileRepo.GetByURL(ctx, url)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			logger.Warn("DiscardURL Warning: lookup of %s failed: %v", url, err)
		}
		return
	}
	uc.Discard(ctx, metadata)
}

// ListUploads returns the images userID uploaded through the standalone upload endpoint.
func (uc *FileUseCase) ListUploads(ctx context.Context, userID string) ([]*entity.FileMetadata, error) {
	files, err := uc.fileRepo.GetByEntityID(ctx, entity.FileEntityUpload, userID)
	if err != nil {
		logger.Error("ListUploads Error: failed to list uploads of %s: %v", userID, err)
		return nil, err
	}
	if files == nil {
		files = []*entity.FileMetadata{}
	}
	return files, nil
}

// DeleteUpload removes an image uploaded by userID.
func (uc *FileUseCase) DeleteUpload(ctx context.Context, userID, fileID string) error {
	metadata, err := uc.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if metadata.UploadedBy != userID {
		return errors.Forbidden("You can only delete your own files", nil)
	}

	if err := uc.uploader.DeleteImage(ctx, metadata.ObjectName); err != nil {
		logger.Error("DeleteUpload Error: failed to delete image %s: %v", metadata.ObjectName, err)
		return errors.Unavailable("Failed to delete image", err)
	}
	return uc.fileRepo.Delete(ctx, metadata.ID)
}
