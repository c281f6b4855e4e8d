package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// memoryBackend serves scripted version pages and records mutations.
type memoryBackend struct {
	pages      map[string][]*VersionPage
	endless    bool
	listCalls  int
	deleted    []ObjectVersion
	failDelete map[string]bool
	put        map[string][]byte
	objects    map[string]*Object
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		pages:      map[string][]*VersionPage{},
		failDelete: map[string]bool{},
		put:        map[string][]byte{},
		objects:    map[string]*Object{},
	}
}

func (b *memoryBackend) PutObject(_ context.Context, name, _ string, data []byte) error {
	b.put[name] = data
	return nil
}

func (b *memoryBackend) ListVersions(_ context.Context, name string, cursor *VersionCursor) (*VersionPage, error) {
	b.listCalls++
	if b.endless {
		return &VersionPage{
			Versions: []ObjectVersion{{Name: name, VersionID: "v"}},
			Next:     &VersionCursor{Name: name, VersionID: "next"},
		}, nil
	}

	pages := b.pages[name]
	index := 0
	if cursor != nil {
		index = len(cursor.VersionID)
	}
	if index >= len(pages) {
		return &VersionPage{}, nil
	}
	return pages[index], nil
}

func (b *memoryBackend) DeleteVersion(_ context.Context, version ObjectVersion) error {
	if b.failDelete[version.VersionID] {
		return errors.New("boom")
	}
	b.deleted = append(b.deleted, version)
	return nil
}

func (b *memoryBackend) GetObject(_ context.Context, name string) (*Object, error) {
	obj, ok := b.objects[name]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return obj, nil
}

func TestManager_DeleteAllVersionsFollowsCursor(t *testing.T) {
	backend := newMemoryBackend()
	// cursor VersionID length selects the page index
	backend.pages["products/a.jpg"] = []*VersionPage{
		{
			Versions: []ObjectVersion{{Name: "products/a.jpg", VersionID: "v1"}},
			Next:     &VersionCursor{Name: "products/a.jpg", VersionID: "x"},
		},
		{
			Versions: []ObjectVersion{
				{Name: "products/a.jpg", VersionID: "v2"},
				{Name: "products/a.jpg.bak", VersionID: "other"},
			},
			Next: &VersionCursor{Name: "products/a.jpg.bak", VersionID: "xx"},
		},
		{
			Versions: []ObjectVersion{{Name: "products/a.jpg", VersionID: "never"}},
		},
	}
	manager := NewManager(backend, 1024, zap.NewNop())

	result := manager.DeleteAllVersions(context.Background(), []string{"/images/products/a.jpg"})

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Deleted)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, backend.listCalls)
	assert.Equal(t, []ObjectVersion{
		{Name: "products/a.jpg", VersionID: "v1"},
		{Name: "products/a.jpg", VersionID: "v2"},
	}, backend.deleted)
}

func TestManager_DeleteAllVersionsStopsAtPageCap(t *testing.T) {
	backend := newMemoryBackend()
	backend.endless = true
	manager := NewManager(backend, 1024, zap.NewNop())

	result := manager.DeleteAllVersions(context.Background(), []string{"products/loop.jpg"})

	assert.Equal(t, maxListPages, backend.listCalls)
	assert.False(t, result.Success)
	assert.Equal(t, maxListPages, result.Deleted)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "truncated")
}

func TestManager_DeleteAllVersionsAggregatesFailures(t *testing.T) {
	backend := newMemoryBackend()
	backend.pages["products/a.jpg"] = []*VersionPage{{
		Versions: []ObjectVersion{
			{Name: "products/a.jpg", VersionID: "bad"},
			{Name: "products/a.jpg", VersionID: "good"},
		},
	}}
	backend.pages["products/b.jpg"] = []*VersionPage{{
		Versions: []ObjectVersion{{Name: "products/b.jpg", VersionID: "b1"}},
	}}
	backend.failDelete["bad"] = true
	manager := NewManager(backend, 1024, zap.NewNop())

	result := manager.DeleteAllVersions(context.Background(), []string{
		"/images/products/a.jpg",
		"/images/products/missing.jpg",
		"https://cdn.example.com/images/products/b.jpg",
		"/images/../secret",
	})

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Deleted)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Failed to delete version bad")
	assert.Contains(t, result.Errors[1], "Invalid image reference")
}

func TestManager_DeleteAllVersionsEmpty(t *testing.T) {
	manager := NewManager(newMemoryBackend(), 1024, zap.NewNop())

	result := manager.DeleteAllVersions(context.Background(), nil)

	assert.True(t, result.Success)
	assert.Zero(t, result.Deleted)
	assert.Nil(t, result.Errors)
}

func TestManager_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores sniffed image under products", func(t *testing.T) {
		backend := newMemoryBackend()
		manager := NewManager(backend, 1024, zap.NewNop())

		ref, err := manager.Upload(ctx, "image/png", bytes.NewReader(pngHeader))

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ref, "/images/products/"))
		assert.True(t, strings.HasSuffix(ref, ".png"))
		assert.Equal(t, pngHeader, backend.put[strings.TrimPrefix(ref, ProxyPrefix)])
	})

	t.Run("declared type must be an image", func(t *testing.T) {
		manager := NewManager(newMemoryBackend(), 1024, zap.NewNop())

		_, err := manager.Upload(ctx, "application/pdf", bytes.NewReader(pngHeader))

		assert.ErrorIs(t, err, ErrInvalidFile)
	})

	t.Run("content must be an image", func(t *testing.T) {
		manager := NewManager(newMemoryBackend(), 1024, zap.NewNop())

		_, err := manager.Upload(ctx, "image/png", strings.NewReader("plain text pretending"))

		assert.ErrorIs(t, err, ErrInvalidFile)
	})

	t.Run("svg is refused", func(t *testing.T) {
		backend := newMemoryBackend()
		manager := NewManager(backend, 1024, zap.NewNop())
		svg := `<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"><script>alert(1)</script></svg>`

		_, err := manager.Upload(ctx, "image/svg+xml", strings.NewReader(svg))

		assert.ErrorIs(t, err, ErrInvalidFile)
		assert.Empty(t, backend.put)
	})

	t.Run("size limit", func(t *testing.T) {
		manager := NewManager(newMemoryBackend(), 16, zap.NewNop())

		_, err := manager.Upload(ctx, "image/png", bytes.NewReader(pngHeader))

		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Contains(t, err.Error(), "16 B")
	})
}

func TestManager_Open(t *testing.T) {
	backend := newMemoryBackend()
	backend.objects["products/a.jpg"] = &Object{Body: io.NopCloser(strings.NewReader("x")), ContentType: "image/jpeg"}
	manager := NewManager(backend, 1024, zap.NewNop())
	ctx := context.Background()

	for _, path := range []string{"", "../etc/passwd", "products/../../x", "/products/a.jpg"} {
		_, err := manager.Open(ctx, path)
		assert.ErrorIs(t, err, ErrInvalidPath, path)
	}

	_, err := manager.Open(ctx, "products/b.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	obj, err := manager.Open(ctx, "products/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", obj.ContentType)
}

func TestRewriteRef(t *testing.T) {
	assert.Equal(t, "/images/products/a.jpg", RewriteRef("/images/products/a.jpg"))
	assert.Equal(t, "/images/products/a.jpg", RewriteRef("https://f000.backblazeb2.com/file/bucket/products/a.jpg"))
	assert.Equal(t, "https://example.com/pic.jpg", RewriteRef("https://example.com/pic.jpg"))
}
