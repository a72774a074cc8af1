package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ImageHostService uploads pet photos to an external image CDN through
// an unsigned upload endpoint (Cloudinary-style).
type ImageHostService struct {
	httpClient *http.Client
	uploadURL  string
	preset     string
}

// NewImageHostService creates an ImageHostService.
func NewImageHostService(uploadURL, preset string) *ImageHostService {
	return &ImageHostService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		uploadURL:  uploadURL,
		preset:     preset,
	}
}

// Enabled reports whether an upload endpoint is configured.
func (s *ImageHostService) Enabled() bool {
	return s.uploadURL != ""
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Upload sends the file and returns the hosted image URL.
func (s *ImageHostService) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	if !s.Enabled() {
		return "", errors.New("image host is not configured")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("image upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("image upload copy: %w", err)
	}
	if s.preset != "" {
		if err := writer.WriteField("upload_preset", s.preset); err != nil {
			return "", fmt.Errorf("image upload preset field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("image upload form close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("image upload request build: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image upload failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("image upload unmarshal: %w", err)
	}

	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	if result.URL != "" {
		return result.URL, nil
	}
	return "", errors.New("image upload: response had no url")
}
