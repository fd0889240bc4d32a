package services

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/cache"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-qr-link/pkg/core/domain"
)

// stubEncoder stands in for the QR renderer; the payload stays
// inspectable as text.
type stubEncoder struct{}

func (stubEncoder) Encode(text string) ([]byte, error) {
	return []byte("png:" + text), nil
}

// memArtifacts is an in-memory ArtifactStore.
type memArtifacts struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{files: map[string][]byte{}}
}

func (m *memArtifacts) Save(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return nil
}

func (m *memArtifacts) Open(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *memArtifacts) delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
}

func newTestService(t *testing.T) (*LinkService, *memArtifacts) {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	artifacts := newMemArtifacts()
	svc := NewLinkService(repo, cache.NewNoopSlugCache(), stubEncoder{}, artifacts, "http://localhost:8080")
	return svc, artifacts
}

func TestIssue_BuildsDestinationURL(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(context.Background(), "https://example.com", map[string]string{"a": "1", "b": "2"})
	require.NoError(t, err)

	// url.Values.Encode sorts keys, so the order is stable here even
	// though callers must not rely on it.
	assert.Equal(t, "https://example.com?a=1&b=2", issued.DestinationURL)
	assert.Equal(t, "http://localhost:8080/r/"+issued.Slug, issued.RedirectURL)
	assert.Equal(t, "http://localhost:8080/qr/"+issued.Slug+".png", issued.QRImageURL)
}

func TestIssue_EmptyParamsLeaveTemplateUntouched(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(context.Background(), "https://example.com/landing", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/landing", issued.DestinationURL)
}

func TestIssue_PercentEncodesParams(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(context.Background(), "https://example.com", map[string]string{"q": "hello world&more"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com?q=hello+world%26more", issued.DestinationURL)
}

func TestIssue_RejectsBadTemplates(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		template string
		wantErr  error
	}{
		{"empty", "", ErrEmptyTemplate},
		{"whitespace", "   ", ErrEmptyTemplate},
		{"no scheme", "example.com", ErrInvalidTemplate},
		{"ftp scheme", "ftp://example.com", ErrInvalidTemplate},
		{"no host", "https://", ErrInvalidTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Issue(context.Background(), tt.template, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIssue_SavesQRArtifact(t *testing.T) {
	svc, artifacts := newTestService(t)

	issued, err := svc.Issue(context.Background(), "https://example.com", nil)
	require.NoError(t, err)

	png, err := artifacts.Open(issued.Slug + ".png")
	require.NoError(t, err)
	// The artifact encodes the resolver URL, never the destination.
	assert.Equal(t, []byte("png:http://localhost:8080/r/"+issued.Slug), png)
}

func TestResolve_ReturnsDestinationByteForByte(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(context.Background(), "https://example.com/path", map[string]string{"utm": "poster"})
	require.NoError(t, err)

	dest, err := svc.Resolve(context.Background(), issued.Slug, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, issued.DestinationURL, dest)

	scans, err := svc.ListScans(context.Background(), issued.Slug)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, issued.Slug, scans[0].Slug)
	assert.Equal(t, "203.0.113.7", scans[0].SourceAddress)
}

func TestResolve_UnknownSlug(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), "never-issued", "203.0.113.7")
	assert.ErrorIs(t, err, ErrSlugNotFound)

	// Resolution must not create a record as a side effect.
	_, err = svc.GetLink(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrSlugNotFound)
}

func TestResolve_RepeatScansAreDistinctEvents(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(context.Background(), "https://example.com", nil)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), issued.Slug, "198.51.100.1")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), issued.Slug, "198.51.100.2")
	require.NoError(t, err)

	scans, err := svc.ListScans(context.Background(), issued.Slug)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "198.51.100.1", scans[0].SourceAddress)
	assert.Equal(t, "198.51.100.2", scans[1].SourceAddress)
	assert.Less(t, scans[0].ID, scans[1].ID)
}

func TestResolve_LookupIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)

	issued, err := svc.Issue(context.Background(), "https://example.com", nil)
	require.NoError(t, err)

	var first *domain.LinkRecord
	for i := 0; i < 5; i++ {
		link, err := svc.GetLink(context.Background(), issued.Slug)
		require.NoError(t, err)
		if first == nil {
			first = link
			continue
		}
		assert.Equal(t, first.DestinationURL, link.DestinationURL)
	}
}

func TestIssue_RetriesOnDuplicateSlug(t *testing.T) {
	svc, _ := newTestService(t)

	var calls atomic.Int64
	svc.genSlug = func() (string, error) {
		n := calls.Add(1)
		if n <= 2 {
			return "collide", nil
		}
		return fmt.Sprintf("fresh-%d", n), nil
	}

	first, err := svc.Issue(context.Background(), "https://example.com/a", nil)
	require.NoError(t, err)
	assert.Equal(t, "collide", first.Slug)

	// Second issuance draws the same slug, loses to the store's
	// uniqueness constraint and transparently retries.
	second, err := svc.Issue(context.Background(), "https://example.com/b", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)

	dest, err := svc.Resolve(context.Background(), "collide", "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", dest)
}

func TestIssue_ConcurrentCollision(t *testing.T) {
	svc, _ := newTestService(t)

	var calls atomic.Int64
	svc.genSlug = func() (string, error) {
		n := calls.Add(1)
		if n <= 2 {
			return "raced", nil
		}
		return fmt.Sprintf("fresh-%d", n), nil
	}

	var wg sync.WaitGroup
	results := make([]*domain.IssuedLink, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			issued, err := svc.Issue(context.Background(), "https://example.com", nil)
			results[i], errs[i] = issued, err
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, results[0].Slug, results[1].Slug)
}

func TestIssue_SlugSpaceExhaustion(t *testing.T) {
	svc, _ := newTestService(t)

	svc.genSlug = func() (string, error) { return "stuck", nil }

	_, err := svc.Issue(context.Background(), "https://example.com/a", nil)
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), "https://example.com/b", nil)
	assert.ErrorIs(t, err, ErrSlugSpaceExhausted)
}

func TestQRImage_RegeneratesLostArtifact(t *testing.T) {
	svc, artifacts := newTestService(t)

	issued, err := svc.Issue(context.Background(), "https://example.com", nil)
	require.NoError(t, err)

	artifacts.delete(issued.Slug + ".png")

	png, err := svc.QRImage(context.Background(), issued.Slug)
	require.NoError(t, err)
	assert.Equal(t, []byte("png:"+issued.RedirectURL), png)

	// The regenerated artifact is saved back.
	saved, err := artifacts.Open(issued.Slug + ".png")
	require.NoError(t, err)
	assert.Equal(t, png, saved)
}

func TestQRImage_UnknownSlug(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.QRImage(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrSlugNotFound)
}

func TestGenerateSlug_Properties(t *testing.T) {
	const n = 10000
	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		slug, err := GenerateSlug()
		require.NoError(t, err)
		require.Regexp(t, pattern, slug)
		if _, dup := seen[slug]; dup {
			t.Fatalf("duplicate slug after %d draws: %s", i, slug)
		}
		seen[slug] = struct{}{}
	}
}

func TestIssue_TimestampsAreUTC(t *testing.T) {
	svc, _ := newTestService(t)

	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("UTC+7", 7*3600))
	svc.now = func() time.Time { return fixed }

	issued, err := svc.Issue(context.Background(), "https://example.com", nil)
	require.NoError(t, err)

	link, err := svc.GetLink(context.Background(), issued.Slug)
	require.NoError(t, err)
	assert.Equal(t, fixed.UTC().Unix(), link.CreatedAt.Unix())
}
