package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) URL(key string) string { return "https://media.example/" + key }

func TestUploader_Disabled(t *testing.T) {
	u := NewUploader(nil, nil)
	assert.False(t, u.Enabled())
	_, err := u.UploadFromURL(context.Background(), "images", "https://x/y.png")
	assert.True(t, errors.Is(err, ErrDisabled))
	assert.False(t, u.IsHosted("https://media.example/a.png"))
}

func TestUploader_UploadFile(t *testing.T) {
	store := newMemStore()
	u := NewUploader(store, nil)
	url, err := u.UploadFile(context.Background(), "fonts", "Brand.TTF", strings.NewReader("font"), 4, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://media.example/fonts/"))
	assert.True(t, strings.HasSuffix(url, ".ttf"))
	assert.True(t, u.IsHosted(url))
	assert.Len(t, store.objects, 1)
}

func TestUploader_UploadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	store := newMemStore()
	u := NewUploader(store, srv.Client())

	url, err := u.UploadFromURL(context.Background(), "images", srv.URL+"/red.png?v=2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://media.example/images/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	for k, v := range store.objects {
		assert.True(t, bytes.Equal(v, []byte("png-bytes")))
		assert.Equal(t, "image/png", store.types[k])
	}

	// already hosted: stored by reference, no second upload
	again, err := u.UploadFromURL(context.Background(), "images", url)
	require.NoError(t, err)
	assert.Equal(t, url, again)
	assert.Len(t, store.objects, 1)

	_, err = u.UploadFromURL(context.Background(), "images", srv.URL+"/missing.png")
	assert.Error(t, err)
}
