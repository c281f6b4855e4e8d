package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"tesatiki/internal/config"
)

const listPageSize = 100

// B2Client talks to the native B2 v2 API.
type B2Client struct {
	auth       *AuthProvider
	http       *http.Client
	bucketID   string
	bucketName string
	logger     *zap.Logger
}

func NewB2Client(cfg config.B2, client *http.Client, logger *zap.Logger) *B2Client {
	return &B2Client{
		auth:       NewAuthProvider(cfg, client),
		http:       client,
		bucketID:   cfg.BucketID,
		bucketName: cfg.BucketName,
		logger:     logger,
	}
}

// escapePath percent-encodes every segment and keeps the separators.
func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func readStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{Status: resp.StatusCode, Body: string(body)}
}

// callAPI posts a JSON request to an API operation. An expired token is
// refreshed once.
func (c *B2Client) callAPI(ctx context.Context, op string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	for attempt := 0; ; attempt++ {
		auth, err := c.auth.Get(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, auth.APIURL+"/b2api/v2/"+op, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", auth.AuthorizationToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			c.auth.Invalidate()
			continue
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := readStatusError(resp)
			resp.Body.Close()
			return fmt.Errorf("%s failed: %w", op, statusErr)
		}

		err = json.NewDecoder(resp.Body).Decode(dest)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode %s response: %w", op, err)
		}
		return nil
	}
}

type uploadURLResponse struct {
	UploadURL          string `json:"uploadUrl"`
	AuthorizationToken string `json:"authorizationToken"`
}

func (c *B2Client) PutObject(ctx context.Context, name, contentType string, data []byte) error {
	var target uploadURLResponse
	if err := c.callAPI(ctx, "b2_get_upload_url", map[string]string{"bucketId": c.bucketID}, &target); err != nil {
		return err
	}

	sum := sha1.Sum(data)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", target.AuthorizationToken)
	req.Header.Set("X-Bz-File-Name", escapePath(name))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Bz-Content-Sha1", hex.EncodeToString(sum[:]))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload failed: %w", readStatusError(resp))
	}
	return nil
}

type listVersionsResponse struct {
	Files []struct {
		FileName string `json:"fileName"`
		FileID   string `json:"fileId"`
	} `json:"files"`
	NextFileName *string `json:"nextFileName"`
	NextFileID   *string `json:"nextFileId"`
}

func (c *B2Client) ListVersions(ctx context.Context, name string, cursor *VersionCursor) (*VersionPage, error) {
	payload := map[string]any{
		"bucketId":      c.bucketID,
		"startFileName": name,
		"prefix":        name,
		"maxFileCount":  listPageSize,
	}
	if cursor != nil {
		payload["startFileName"] = cursor.Name
		payload["startFileId"] = cursor.VersionID
	}

	var listing listVersionsResponse
	if err := c.callAPI(ctx, "b2_list_file_versions", payload, &listing); err != nil {
		return nil, err
	}

	page := &VersionPage{Versions: make([]ObjectVersion, 0, len(listing.Files))}
	for _, f := range listing.Files {
		page.Versions = append(page.Versions, ObjectVersion{Name: f.FileName, VersionID: f.FileID})
	}
	if listing.NextFileName != nil && listing.NextFileID != nil {
		page.Next = &VersionCursor{Name: *listing.NextFileName, VersionID: *listing.NextFileID}
	}
	return page, nil
}

func (c *B2Client) DeleteVersion(ctx context.Context, version ObjectVersion) error {
	var ignored json.RawMessage
	return c.callAPI(ctx, "b2_delete_file_version", map[string]string{
		"fileName": version.Name,
		"fileId":   version.VersionID,
	}, &ignored)
}

func (c *B2Client) GetObject(ctx context.Context, name string) (*Object, error) {
	for attempt := 0; ; attempt++ {
		auth, err := c.auth.Get(ctx)
		if err != nil {
			return nil, err
		}

		target := fmt.Sprintf("%s/file/%s/%s", auth.DownloadURL, c.bucketName, escapePath(name))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", auth.AuthorizationToken)

		resp, err := c.http.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return &Object{
				Body:          resp.Body,
				ContentType:   resp.Header.Get("Content-Type"),
				ContentLength: resp.ContentLength,
			}, nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrObjectNotFound
		case resp.StatusCode == http.StatusUnauthorized && attempt == 0:
			resp.Body.Close()
			c.logger.Info("download token rejected, re-authorizing", zap.String("path", name))
			c.auth.Invalidate()
			continue
		default:
			statusErr := readStatusError(resp)
			resp.Body.Close()
			return nil, statusErr
		}
	}
}
