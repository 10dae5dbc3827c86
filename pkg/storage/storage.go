package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ireporter/pkg/cloudinary"

	"github.com/google/uuid"
)

// Storage persists an uploaded evidence file and returns the path or URL it
// is reachable at.
type Storage interface {
	Save(ctx context.Context, file io.Reader, originalName, contentType string) (string, error)
}

// DiskStorage writes files under a local directory served at /uploads.
type DiskStorage struct {
	dir string
}

func NewDiskStorage(dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStorage{dir: dir}, nil
}

func (s *DiskStorage) Save(_ context.Context, file io.Reader, originalName, _ string) (string, error) {
	name := newFileID() + filepath.Ext(originalName)
	out, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

// CloudinaryStorage stores evidence in Cloudinary and returns the secure URL.
type CloudinaryStorage struct {
	cloud  cloudinary.Client
	folder string
}

func NewCloudinaryStorage(cloud cloudinary.Client, folder string) *CloudinaryStorage {
	return &CloudinaryStorage{cloud: cloud, folder: folder}
}

func (s *CloudinaryStorage) Save(ctx context.Context, file io.Reader, _, contentType string) (string, error) {
	publicID := "ev_" + newFileID()
	if strings.HasPrefix(contentType, "image/") {
		return s.cloud.UploadImage(ctx, file, s.folder, publicID)
	}
	return s.cloud.UploadVideo(ctx, file, s.folder, publicID)
}

func newFileID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
