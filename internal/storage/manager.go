package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"tesatiki/internal/metrics"
)

const (
	// ProxyPrefix is the public path images are served under.
	ProxyPrefix = "/images/"

	productsFolder = "products/"
	maxListPages   = 100
)

type DeleteResult struct {
	Success bool     `json:"success"`
	Deleted int      `json:"deleted"`
	Errors  []string `json:"errors,omitempty"`
}

// Manager owns image uploads, proxy reads and full version purges.
type Manager struct {
	backend       Backend
	maxUploadSize int64
	logger        *zap.Logger
	now           func() time.Time
}

func NewManager(backend Backend, maxUploadSize int64, logger *zap.Logger) *Manager {
	return &Manager{
		backend:       backend,
		maxUploadSize: maxUploadSize,
		logger:        logger,
		now:           time.Now,
	}
}

// Upload stores an image and returns its proxy reference. The declared type
// only gates the request; the object is stored under the sniffed type, and
// SVG content is refused.
func (m *Manager) Upload(ctx context.Context, declaredType string, body io.Reader) (string, error) {
	if !strings.HasPrefix(declaredType, "image/") {
		return "", ErrInvalidFile
	}

	data, err := io.ReadAll(io.LimitReader(body, m.maxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > m.maxUploadSize {
		return "", fmt.Errorf("%w: maximum is %s", ErrFileTooLarge, humanize.IBytes(uint64(m.maxUploadSize)))
	}
	if len(data) == 0 {
		return "", ErrInvalidFile
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return "", fmt.Errorf("%w: content is %s", ErrInvalidFile, detected.String())
	}
	if detected.Is("image/svg+xml") {
		return "", fmt.Errorf("%w: svg images are not accepted", ErrInvalidFile)
	}

	name := fmt.Sprintf("%s%d_%s%s", productsFolder, m.now().UnixNano(), xid.New().String(), detected.Extension())
	if err := m.backend.PutObject(ctx, name, detected.String(), data); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	m.logger.Info("image uploaded",
		zap.String("name", name),
		zap.String("size", humanize.IBytes(uint64(len(data)))),
	)

	return ProxyPrefix + name, nil
}

// ValidObjectPath rejects empty, absolute and parent-relative object paths.
func ValidObjectPath(path string) bool {
	return path != "" && !strings.Contains(path, "..") && !strings.HasPrefix(path, "/")
}

// Open streams the object stored at path, the part of the URL after the
// proxy prefix. Callers must close the body.
func (m *Manager) Open(ctx context.Context, path string) (*Object, error) {
	if !ValidObjectPath(path) {
		return nil, ErrInvalidPath
	}
	return m.backend.GetObject(ctx, path)
}

// objectName turns an image reference into the stored object name.
func objectName(ref string) string {
	if strings.HasPrefix(ref, ProxyPrefix) {
		return strings.TrimPrefix(ref, ProxyPrefix)
	}
	if _, after, found := strings.Cut(ref, ProxyPrefix); found {
		return after
	}
	return ref
}

// DeleteAllVersions removes every stored version of each referenced image.
// Failures are collected per image and never stop the batch.
func (m *Manager) DeleteAllVersions(ctx context.Context, refs []string) DeleteResult {
	result := DeleteResult{}

	for _, ref := range refs {
		name := objectName(ref)
		if !ValidObjectPath(name) {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid image reference %q", ref))
			continue
		}

		versions, err := m.collectVersions(ctx, name)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to list versions for %s: %v", name, err))
		}
		if len(versions) == 0 {
			if err == nil {
				m.logger.Info("image not found in blob store", zap.String("name", name))
			}
			continue
		}

		for _, version := range versions {
			if err := m.backend.DeleteVersion(ctx, version); err != nil {
				metrics.BlobVersionsDeleted.WithLabelValues("error").Inc()
				result.Errors = append(result.Errors, fmt.Sprintf("Failed to delete version %s: %v", version.VersionID, err))
				continue
			}
			metrics.BlobVersionsDeleted.WithLabelValues("deleted").Inc()
			result.Deleted++
		}
	}

	result.Success = len(result.Errors) == 0
	return result
}

// collectVersions pages through the version listing of name. It stops when
// the listing ends, moves on to another name, or hits the page cap; the
// versions gathered so far are returned together with any error.
func (m *Manager) collectVersions(ctx context.Context, name string) ([]ObjectVersion, error) {
	var (
		versions []ObjectVersion
		cursor   *VersionCursor
	)

	for page := 0; page < maxListPages; page++ {
		listing, err := m.backend.ListVersions(ctx, name, cursor)
		if err != nil {
			return versions, err
		}
		if len(listing.Versions) == 0 {
			return versions, nil
		}

		for _, v := range listing.Versions {
			if v.Name == name {
				versions = append(versions, v)
			}
		}

		if listing.Next == nil || listing.Next.Name != name {
			return versions, nil
		}
		cursor = listing.Next
	}

	m.logger.Warn("version listing truncated", zap.String("name", name), zap.Int("pages", maxListPages))
	return versions, fmt.Errorf("listing truncated after %d pages", maxListPages)
}

// RewriteRef maps a stored image reference to its public proxy form.
func RewriteRef(ref string) string {
	if strings.HasPrefix(ref, ProxyPrefix) {
		return ref
	}
	if _, after, found := strings.Cut(ref, productsFolder); found {
		return ProxyPrefix + productsFolder + after
	}
	return ref
}
