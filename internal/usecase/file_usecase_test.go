package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emprende/internal/domain/entity"
	"emprende/pkg/errors"
)

func TestListAndDeleteUploads(t *testing.T) {
	ctx := context.Background()
	uploader := &fakeUploader{}
	uc := NewFileUseCase(uploader, newMemFileRepo(), allowAll{}, 5<<20)

	none, err := uc.ListUploads(ctx, "ana")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	mine, err := uc.UploadImage(ctx, "ana", pngImage(), "uploads", entity.FileEntityUpload, "ana")
	require.NoError(t, err)
	_, err = uc.UploadImage(ctx, "ana", pngImage(), "users", entity.FileEntityUser, "ana")
	require.NoError(t, err)

	listed, err := uc.ListUploads(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)

	err = uc.DeleteUpload(ctx, "bruno", mine.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	require.NoError(t, uc.DeleteUpload(ctx, "ana", mine.ID))
	assert.Equal(t, []string{mine.ObjectName}, uploader.deleted)

	err = uc.DeleteUpload(ctx, "ana", mine.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestDiscardURLIgnoresUnknownImages(t *testing.T) {
	uploader := &fakeUploader{}
	uc := NewFileUseCase(uploader, newMemFileRepo(), allowAll{}, 5<<20)

	uc.DiscardURL(context.Background(), "")
	uc.DiscardURL(context.Background(), "https://elsewhere.test/a.png")

	assert.Empty(t, uploader.deleted)
}
