package services

import (
	"context"
	"io"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
	"github.com/thibovi/rebilt-backend/internal/storage"
)

// MediaService copies product media into our object storage and records uploaded meshes
type MediaService struct {
	db       *db.Database
	uploader *storage.Uploader
}

// NewMediaService creates the media service. A nil or disabled uploader keeps URLs as given.
func NewMediaService(database *db.Database, uploader *storage.Uploader) *MediaService {
	return &MediaService{db: database, uploader: uploader}
}

// Enabled reports whether object storage is configured
func (s *MediaService) Enabled() bool { return s.uploader.Enabled() }

func isRemote(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// HostProduct replaces remote modelFile, thumbnail and option image URLs of p with
// hosted copies. URLs already in our bucket are kept by reference.
func (s *MediaService) HostProduct(ctx context.Context, p *models.Product) error {
	if !s.Enabled() {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	host := func(dst *string, prefix string) {
		src := *dst
		if !isRemote(src) || s.uploader.IsHosted(src) {
			return
		}
		g.Go(func() error {
			hosted, err := s.uploader.UploadFromURL(gctx, prefix, src)
			if err != nil {
				return upstream("storage", err)
			}
			*dst = hosted
			return nil
		})
	}
	host(&p.ModelFile, "models")
	host(&p.Thumbnail, "thumbnails")
	for i := range p.Configurations {
		for j := range p.Configurations[i].SelectedOptions {
			images := p.Configurations[i].SelectedOptions[j].Images
			for k := range images {
				host(&images[k], "images")
			}
		}
	}
	return g.Wait()
}

// UploadMesh stores a 3D file and, when partnerID and name are given, records it as an asset
func (s *MediaService) UploadMesh(ctx context.Context, filename string, r io.Reader, size int64, contentType, partnerID, name string) (string, *models.Asset, error) {
	if !s.Enabled() {
		return "", nil, storage.ErrDisabled
	}
	url, err := s.uploader.UploadFile(ctx, "meshes", filename, r, size, contentType)
	if err != nil {
		return "", nil, upstream("storage", err)
	}
	log.Printf("[MEDIA] Uploaded mesh %s to %s", filename, url)
	if partnerID == "" || name == "" {
		return url, nil, nil
	}
	asset := &models.Asset{PartnerID: partnerID, Name: name, ModelFile: url}
	if err := s.db.CreateAsset(ctx, asset); err != nil {
		return url, nil, err
	}
	return url, asset, nil
}

// UploadFont stores a font file
func (s *MediaService) UploadFont(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !s.Enabled() {
		return "", storage.ErrDisabled
	}
	url, err := s.uploader.UploadFile(ctx, "fonts", filename, r, size, contentType)
	if err != nil {
		return "", upstream("storage", err)
	}
	return url, nil
}
