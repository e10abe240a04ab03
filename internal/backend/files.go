package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/artelier/promptforge/internal/domain"
)

// UploadFile sends a reference image to the session via multipart form data.
// This bypasses the JSON path; the Content-Type header is left to the
// multipart writer so the boundary is set correctly. Error normalization is
// the same as for JSON calls.
func (c *Client) UploadFile(ctx context.Context, sessionID, filename string, data io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return "", fmt.Errorf("copy file data: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	path := fmt.Sprintf("/api/session/%s/upload", sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.decorate(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	}
	if err := c.handle(resp, http.MethodPost, path, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// ListFiles returns the files uploaded to the session.
func (c *Client) ListFiles(ctx context.Context, sessionID string) ([]domain.UploadedFile, error) {
	var out struct {
		Files []filePayload `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/session/%s/files", sessionID), nil, &out); err != nil {
		return nil, err
	}

	files := make([]domain.UploadedFile, 0, len(out.Files))
	for _, f := range out.Files {
		files = append(files, domain.UploadedFile{
			Name:       f.Name,
			URL:        f.URL,
			UploadedAt: parseTime(f.UploadedAt),
			Type:       f.Type,
		})
	}
	return files, nil
}

// DeleteFile removes an uploaded file by its position in the session list.
func (c *Client) DeleteFile(ctx context.Context, sessionID string, index int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/session/%s/files/%d", sessionID, index), nil, nil)
}
