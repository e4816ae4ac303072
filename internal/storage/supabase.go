package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jo-hoe/logomigrator/internal/common"
)

// SupabaseStore uploads through the Supabase storage REST API.
type SupabaseStore struct {
	endpoint   string
	bucket     string
	serviceKey string
	client     *http.Client
}

// NewSupabaseStore creates a store for bucket. A nil client uses http.DefaultClient.
func NewSupabaseStore(endpoint, bucket, serviceKey string, client *http.Client) *SupabaseStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &SupabaseStore{
		endpoint:   strings.TrimRight(endpoint, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		client:     client,
	}
}

type uploadResponse struct {
	Key string `json:"Key"`
}

func (s *SupabaseStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	url := s.endpoint + "/storage/v1/object/" + s.bucket + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", &common.NetworkError{Op: "upload", URL: url, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &common.NetworkError{Op: "upload", URL: url, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("failed to close response body", "url", url, "error", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &common.NetworkError{Op: "upload", URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &common.UploadError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Key != "" {
		slog.Debug("object stored", "key", parsed.Key, "bytes", len(data))
	}

	return s.PublicPath(path), nil
}

// PublicPath is the host-relative path under which the bucket serves path.
func (s *SupabaseStore) PublicPath(path string) string {
	return "/storage/v1/object/public/" + s.bucket + "/" + path
}
