package service

import (
	"context"
	"io"
)

// UploadResult describes an image stored by the media provider.
type UploadResult struct {
	URL        string
	ObjectName string
	Provider   string
	Size       int64
}

type ImageUploadService interface {
	UploadImage(ctx context.Context, file io.Reader, contentType, folder string) (*UploadResult, error)
	// DeleteImage removes a stored image identified by its object name.
	DeleteImage(ctx context.Context, objectName string) error
	Close() error
}
