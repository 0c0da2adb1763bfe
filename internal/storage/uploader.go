package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxDownloadBytes caps remote files copied by UploadFromURL
const MaxDownloadBytes = 200 << 20

// ErrDisabled is returned when no object store is configured
var ErrDisabled = errors.New("object storage not configured")

// Uploader hosts media files in an ObjectStore and hands back permanent URLs
type Uploader struct {
	Store  ObjectStore
	Client *http.Client
}

// NewUploader wraps store. A nil store yields a disabled uploader.
func NewUploader(store ObjectStore, client *http.Client) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Uploader{Store: store, Client: client}
}

func (u *Uploader) Enabled() bool { return u != nil && u.Store != nil }

// IsHosted reports whether url already points into our storage
func (u *Uploader) IsHosted(url string) bool {
	if !u.Enabled() || url == "" {
		return false
	}
	return strings.HasPrefix(url, u.Store.URL(""))
}

// ObjectKey builds a unique key under prefix keeping the extension of name
func ObjectKey(prefix, name string) string {
	ext := strings.ToLower(path.Ext(name))
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + ext
}

// UploadFile stores r under prefix and returns its URL
func (u *Uploader) UploadFile(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !u.Enabled() {
		return "", ErrDisabled
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := ObjectKey(prefix, filename)
	if err := u.Store.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return u.Store.URL(key), nil
}

// UploadFromURL copies a remote file into storage. URLs already hosted by us are returned unchanged.
func (u *Uploader) UploadFromURL(ctx context.Context, prefix, src string) (string, error) {
	if !u.Enabled() {
		return "", ErrDisabled
	}
	if src == "" || u.IsHosted(src) {
		return src, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", src, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return "", fmt.Errorf("download %s: %w", src, err)
	}
	if len(body) > MaxDownloadBytes {
		return "", fmt.Errorf("download %s: file exceeds %d bytes", src, MaxDownloadBytes)
	}
	name := path.Base(strings.SplitN(src, "?", 2)[0])
	return u.UploadFile(ctx, prefix, name, bytes.NewReader(body), int64(len(body)), resp.Header.Get("Content-Type"))
}
