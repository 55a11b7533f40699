package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"emprende/internal/domain/service"
	"emprende/pkg/logger"
)

const defaultCloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// CloudinaryClient uploads through an unsigned upload preset, so no API secret lives on the server.
type CloudinaryClient struct {
	cloudName    string
	uploadPreset string
	baseURL      string
	httpClient   *http.Client
}

var _ service.ImageUploadService = (*CloudinaryClient)(nil)

type cloudinaryUploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Bytes     int64  `json:"bytes"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewCloudinaryClient(cloudName, uploadPreset string) *CloudinaryClient {
	return &CloudinaryClient{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		baseURL:      defaultCloudinaryBaseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *CloudinaryClient) WithBaseURL(baseURL string) *CloudinaryClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *CloudinaryClient) UploadImage(ctx context.Context, file io.Reader, contentType, folder string) (*service.UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", uuid.New().String()+extensionFor(contentType))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	size, err := io.Copy(part, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if err := writer.WriteField("upload_preset", c.uploadPreset); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if folder = strings.Trim(folder, "/"); folder != "" {
		if err := writer.WriteField("folder", folder); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result cloudinaryUploadResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("cloudinary upload failed: %s", result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || result.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary upload failed with status %d", resp.StatusCode)
	}

	if result.Bytes > 0 {
		size = result.Bytes
	}

	return &service.UploadResult{
		URL:        result.SecureURL,
		ObjectName: result.PublicID,
		Provider:   ProviderCloudinary,
		Size:       size,
	}, nil
}

// DeleteImage is a no-op: destroying an asset needs a signed request and this client only holds an unsigned preset.
func (c *CloudinaryClient) DeleteImage(ctx context.Context, objectName string) error {
	logger.Warn("Cloudinary image %s left in place, unsigned uploads cannot be deleted", objectName)
	return nil
}

func (c *CloudinaryClient) Close() error {
	return nil
}
